package inventory

// Location is a stocking location (warehouse, shelf, print-farm cell).
// Exactly one location is the deployment default.
type Location struct {
	ID      string
	Code    string
	Name    string
	Default bool
}
