package domain

// Tree is a tree shared by every partition that links to it.
type Tree struct {
	ID   string
	Taxa []string
}

// ClockModel is a strict clock shared by the partitions that link to it.
type ClockModel struct {
	ID   string
	Rate float64
}

// SubstitutionModel is an Mk model sized to a partition's state count.
type SubstitutionModel struct {
	ID                 string
	StateCount         int
	RateDimension      int
	FrequencyDimension int
}

// SiteModel binds a substitution model to a partition.
type SiteModel struct {
	ID                  string
	SubstitutionModelID string
	GammaCategoryCount  int
}

// TreeLikelihood ties a partition's data to its site model, tree and clock.
type TreeLikelihood struct {
	ID           string
	DataID       string
	TreeID       string
	SiteModelID  string
	ClockModelID string
}

func (t *Tree) GetID() string              { return t.ID }
func (c *ClockModel) GetID() string        { return c.ID }
func (m *SubstitutionModel) GetID() string { return m.ID }
func (m *SiteModel) GetID() string         { return m.ID }
func (l *TreeLikelihood) GetID() string    { return l.ID }
