package messages

import "encoding/json"

// TwinCollection is one versioned property bag of a device twin.
type TwinCollection struct {
	// Version increments every time the service persists an update.
	Version int64 `json:"$version,omitempty"`

	// Values holds the property tree. Nested objects decode as
	// map[string]interface{}, matching encoding/json defaults.
	Values map[string]interface{} `json:"-"`
}

// NewTwinCollection creates an empty property bag.
func NewTwinCollection() *TwinCollection {
	return &TwinCollection{Values: make(map[string]interface{})}
}

// Get returns the property value and whether it exists.
func (tc *TwinCollection) Get(key string) (interface{}, bool) {
	v, ok := tc.Values[key]
	return v, ok
}

// Set stores a property value.
func (tc *TwinCollection) Set(key string, value interface{}) {
	if tc.Values == nil {
		tc.Values = make(map[string]interface{})
	}
	tc.Values[key] = value
}

// Len returns the number of top-level properties.
func (tc *TwinCollection) Len() int {
	return len(tc.Values)
}

// MarshalJSON flattens Values alongside the $version marker.
func (tc *TwinCollection) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(tc.Values)+1)
	for k, v := range tc.Values {
		out[k] = v
	}
	if tc.Version != 0 {
		out["$version"] = tc.Version
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the $version marker out of the property tree.
func (tc *TwinCollection) UnmarshalJSON(data []byte) error {
	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["$version"].(float64); ok {
		tc.Version = int64(v)
		delete(raw, "$version")
	}
	tc.Values = raw
	return nil
}

// TwinProperties pairs the service-desired and device-reported property bags.
type TwinProperties struct {
	Desired  *TwinCollection `json:"desired,omitempty"`
	Reported *TwinCollection `json:"reported,omitempty"`
}

// Twin is the device twin document: the service-side state mirror of a device.
type Twin struct {
	DeviceID   string         `json:"device_id,omitempty"`
	ETag       string         `json:"etag,omitempty"`
	Properties TwinProperties `json:"properties"`
}

// NewTwin creates a twin with empty desired and reported collections.
func NewTwin(deviceID string) *Twin {
	return &Twin{
		DeviceID: deviceID,
		Properties: TwinProperties{
			Desired:  NewTwinCollection(),
			Reported: NewTwinCollection(),
		},
	}
}
