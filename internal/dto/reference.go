package dto

// VenueRequest creates or replaces a venue.
type VenueRequest struct {
	Name          string  `json:"name" validate:"required,min=1,max=120"`
	Type          *string `json:"type" validate:"omitempty,max=60"`
	Capacity      *int    `json:"capacity" validate:"omitempty,min=0"`
	BuildingID    *int64  `json:"buildingId" validate:"omitempty,gt=0"`
	AllowConflict bool    `json:"allowConflict"`
}

// BatchRequest creates or renames a batch.
type BatchRequest struct {
	Label string `json:"label" validate:"required,min=1,max=120"`
}

// DepartmentRequest creates or renames a department.
type DepartmentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// BuildingRequest creates or renames a building.
type BuildingRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}
