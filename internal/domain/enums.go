package domain

// AuditAction represents the kind of mutation recorded in the entry history.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionImport AuditAction = "IMPORT"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionImport:
		return true
	}
	return false
}

// ImportMode controls how a LIFT import treats entries that already exist.
type ImportMode string

const (
	// ImportModeSkip leaves existing entries untouched.
	ImportModeSkip ImportMode = "skip"
	// ImportModeMerge replaces existing entries with the imported version.
	ImportModeMerge ImportMode = "merge"
	// ImportModeReplace clears the database before importing.
	ImportModeReplace ImportMode = "replace"
)

func (m ImportMode) String() string { return string(m) }

func (m ImportMode) IsValid() bool {
	switch m {
	case ImportModeSkip, ImportModeMerge, ImportModeReplace:
		return true
	}
	return false
}
