package item

// MaterialType is a catalog entry for a print material family (PLA, PETG, …)
type MaterialType struct {
	ID   string
	Code string
	Name string
}

// Color is a catalog entry for a material color
type Color struct {
	ID   string
	Code string
	Name string
}
