// Package utils provides common utility functions for the catalog manager.
// It includes helper functions for loose type conversion of CSV cell values
// and other shared logic that doesn't fit into domain-specific packages.
package utils
