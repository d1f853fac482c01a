package linked

import (
	"testing"

	"tesim/testutil"
)

// Representations are wired by the service layer and must not import it back.
func TestRepresentationStaysBelowServiceLayer(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ServiceImportForbidden,
		"linked representation must stay independent of internal/core")
}
