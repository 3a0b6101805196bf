package safe

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrSizeMismatch is returned when two rasters that must overlay differ in size.
var ErrSizeMismatch = errors.New("raster size mismatch")

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat is invalid for operation: %s", operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	return nil
}

// ValidateBinary checks that mat is a single-channel 8-bit raster.
func ValidateBinary(mat *Mat, operation string) error {
	if err := ValidateMatForOperation(mat, operation); err != nil {
		return err
	}

	if mat.Type() != gocv.MatTypeCV8UC1 {
		return fmt.Errorf("operation %s requires an 8-bit single-channel raster, got type %d",
			operation, int(mat.Type()))
	}

	return nil
}

// ValidateSameSize checks that a and b can be combined pixel by pixel.
func ValidateSameSize(a, b *Mat, operation string) error {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return fmt.Errorf("%w for operation %s: %dx%d vs %dx%d",
			ErrSizeMismatch, operation, a.Cols(), a.Rows(), b.Cols(), b.Rows())
	}
	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > 32768 || height > 32768 {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

func ValidateCoordinates(row, col, rows, cols int, operation string) error {
	if row < 0 || row >= rows {
		return fmt.Errorf("row %d out of bounds [0, %d) for operation: %s", row, rows, operation)
	}

	if col < 0 || col >= cols {
		return fmt.Errorf("col %d out of bounds [0, %d) for operation: %s", col, cols, operation)
	}

	return nil
}
