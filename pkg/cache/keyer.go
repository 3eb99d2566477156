package cache

// LayoutKeyOpts holds the layout parameters that change a snapshot.
type LayoutKeyOpts struct {
	MinSpacing       float64 `json:"min"`
	PreferredSpacing float64 `json:"preferred"`
	MaxSpacing       float64 `json:"max"`
	EndpointSpacing  float64 `json:"endpoint"`
	LayerHeight      float64 `json:"layer_height"`
}

// Keyer derives cache keys from the inputs of a cached computation.
type Keyer interface {
	// BranchKey keys the branch list of one node configuration.
	BranchKey(nodeID, nodeType, configHash string) string

	// LayoutKey keys a layout snapshot of a whole scene.
	LayoutKey(sceneHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// BranchKey implements Keyer.
func (DefaultKeyer) BranchKey(nodeID, nodeType, configHash string) string {
	return hashKey("branches", nodeID, nodeType, configHash)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(sceneHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", sceneHash, opts)
}
