package dto

// BookingRequest is the payload for creating or updating an event or exam.
// Start and End stay strings so that unparsable instants surface as INVALID_TIMESTAMP.
type BookingRequest struct {
	Title        string `json:"title" validate:"required,min=2,max=200"`
	VenueID      int64  `json:"venueId" validate:"required,gt=0"`
	DepartmentID *int64 `json:"departmentId" validate:"omitempty,gt=0"`
	BatchID      *int64 `json:"batchId" validate:"omitempty,gt=0"`
	Start        string `json:"start" validate:"required"`
	End          string `json:"end" validate:"required"`
}

// BookingListQuery captures listing filters from the query string.
type BookingListQuery struct {
	Kind         string `form:"kind" validate:"omitempty,oneof=event exam"`
	VenueID      *int64 `form:"venueId" validate:"omitempty,gt=0"`
	BatchID      *int64 `form:"batchId" validate:"omitempty,gt=0"`
	DepartmentID *int64 `form:"departmentId" validate:"omitempty,gt=0"`
	From         string `form:"from"`
	To           string `form:"to"`
	Limit        int    `form:"limit" validate:"omitempty,min=1,max=1000"`
}

// ExportQuery selects the rendered format of a schedule export.
type ExportQuery struct {
	BookingListQuery
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// DeleteResponse acknowledges a removal.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
