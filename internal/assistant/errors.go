package assistant

import "errors"

var (
	// ErrAccessDenied means the caregiver has no accepted linkage to the patient.
	ErrAccessDenied = errors.New("assistant: caregiver has no access to this patient")
	// ErrPatientNotFound means a patient (selected or named in the message)
	// could not be resolved.
	ErrPatientNotFound = errors.New("assistant: patient not found")
	// ErrInferenceUnavailable means no inference backend produced a response.
	ErrInferenceUnavailable = errors.New("assistant: inference backend unavailable")
)
