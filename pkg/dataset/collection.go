package dataset

// Source tells where a collection comes from.
type Source string

const (
	SourceAPI    Source = "api"
	SourceCustom Source = "custom"
)

// Ref is the dataset summary carried by API collections and search results.
type Ref struct {
	Id   string `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// Collection is a named set of datasets. API collections list members in Datasets,
// custom collections in DatasetIds.
type Collection struct {
	Id         string   `json:"id"`
	Name       string   `json:"name"`
	Source     Source   `json:"source"`
	Datasets   []Ref    `json:"datasets,omitempty"`
	DatasetIds []string `json:"datasetIds,omitempty"`
}

// Members resolves the collection's dataset ids from whichever shape it carries.
func (c Collection) Members() []string {
	if c.DatasetIds != nil || c.Source == SourceCustom {
		return Dedupe(c.DatasetIds)
	}
	ids := make([]string, 0, len(c.Datasets))
	for _, ds := range c.Datasets {
		ids = append(ids, ds.Id)
	}
	return Dedupe(ids)
}

// Matches reports whether the collection holds exactly the selected datasets.
func (c Collection) Matches(selection []string) bool {
	return Equal(c.Members(), selection)
}

// FindMatching returns the first collection whose members equal selection, or nil.
func FindMatching(collections []Collection, selection []string) *Collection {
	for i := range collections {
		if collections[i].Matches(selection) {
			c := collections[i]
			return &c
		}
	}
	return nil
}

// FindByID looks a collection up by id.
func FindByID(collections []Collection, id string) *Collection {
	for i := range collections {
		if collections[i].Id == id {
			c := collections[i]
			return &c
		}
	}
	return nil
}
