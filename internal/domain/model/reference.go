package model

// Record is a reference-data row keyed by column name. Character and weapon
// tables are read as-is, so their columns are not modelled.
type Record map[string]interface{}

type ReferenceKind string

const (
	KindCharacter ReferenceKind = "characters"
	KindWeapon    ReferenceKind = "weapons"
)
