package invoice

import "errors"

var (
	// ErrUploadMalformed means the upload could not be read or held no file
	ErrUploadMalformed = errors.New("failed to parse upload")

	// ErrInvalidImage means the upload is not an image
	ErrInvalidImage = errors.New("the uploaded file is not a valid image")

	// ErrEmptyExtraction means OCR found no text in the image
	ErrEmptyExtraction = errors.New("no text could be extracted from the image")

	// ErrExtractionFailed means no valid invoice fields could be extracted
	ErrExtractionFailed = errors.New("failed to extract invoice data, try a clearer photo")
)
