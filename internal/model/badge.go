package model

// Badge is an achievement definition: Requirement completed tasks of Type.
type Badge struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        Category `json:"type"`
	Requirement int      `json:"requirement"`
}
