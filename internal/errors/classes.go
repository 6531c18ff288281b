package errors

// Failure classes used by the inspection orchestrator to decide control flow.
// Input failures reject a job before any artifact is written, encode failures
// abort only the owning video job, cleanup failures are logged and swallowed,
// and everything else yields a per-item ERROR record while siblings continue.

// inputCategories are the categories that reject a job up front.
var inputCategories = map[ErrorCategory]bool{
	CategoryValidation:  true,
	CategoryImageDecode: true,
	CategoryVideoProbe:  true,
}

// IsInputError reports whether err rejects its job before processing starts.
func IsInputError(err error) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && inputCategories[enhancedErr.Category]
}

// IsFatalEncodeError reports whether err aborts the owning video job.
func IsFatalEncodeError(err error) bool {
	return IsCategory(err, CategoryEncode)
}

// IsCleanupWarning reports whether err came from the retention sweep and
// must never propagate past logging.
func IsCleanupWarning(err error) bool {
	return IsCategory(err, CategoryDiskCleanup)
}
