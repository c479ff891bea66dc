package enums

import "fmt"

// CollectionType mirrors the storefront's collection flavours.
type CollectionType string

const (
	CollectionTypeCustom CollectionType = "custom"
	CollectionTypeSmart  CollectionType = "smart"
)

var validCollectionTypes = []CollectionType{
	CollectionTypeCustom,
	CollectionTypeSmart,
}

// String implements fmt.Stringer.
func (v CollectionType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CollectionType.
func (v CollectionType) IsValid() bool {
	for _, candidate := range validCollectionTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCollectionType converts raw input into a CollectionType.
func ParseCollectionType(value string) (CollectionType, error) {
	for _, candidate := range validCollectionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collection type %q", value)
}
