package person

import "errors"

var (
	ErrPersonNotFound     = errors.New("person not found")
	ErrIdentifierExists   = errors.New("identifier already assigned in this tenant")
	ErrRollNumberTaken    = errors.New("roll number already taken in this class")
	ErrClassRequired      = errors.New("class_id is required to assign a roll number")
	ErrLeftBeforeEnrolled = errors.New("left_on cannot be before enrolled_on")
	ErrInvalidWorkbook    = errors.New("invalid roster workbook")
)
