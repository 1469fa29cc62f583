package errx

import (
	"fmt"
	"net/http"
)

// WrapVector maps vector store errors to the unified Error type. Retrieval
// failures are recovered by the pipeline's grounding gate, so the status here
// is informational only.
func WrapVector(err error) *Error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, VectorErrorMessage)
}

// WrapMail maps document delivery errors to the unified Error type.
func WrapMail(err error) *Error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, MailErrorMessage)
}

// Contract marks a pipeline invariant violation. This is the only error class
// allowed to abort a turn, so it must never be produced for collaborator
// failures.
func Contract(format string, args ...any) *Error {
	return New(fmt.Errorf(format, args...), http.StatusInternalServerError, ContractErrorMessage)
}
