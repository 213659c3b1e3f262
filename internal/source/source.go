package source

// Type identifies where metadata for a directory is read from.
type Type int

const (
	TypeTags Type = iota
	TypeAttrs
	TypeNone
)

func (t Type) String() string {
	switch t {
	case TypeTags:
		return "tags"
	case TypeAttrs:
		return "attributes"
	case TypeNone:
		return "none"
	default:
		return "unknown"
	}
}

// ConflictPolicy selects how disagreements between the two metadata
// sources of a directory are resolved.
type ConflictPolicy int

const (
	PolicyOverwrite ConflictPolicy = iota
	PolicyFillEmpty
	PolicyAsk
)

func (p ConflictPolicy) String() string {
	switch p {
	case PolicyOverwrite:
		return "overwrite"
	case PolicyFillEmpty:
		return "fill-empty"
	case PolicyAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// Source holds the sync configuration of one monitored directory.
type Source struct {
	Path      string
	Primary   Type
	Secondary Type
	Policy    ConflictPolicy
}

// Default returns the settings used when no configured directory prefixes
// a path: embedded tags lead, native attributes fill in, conflicts ask.
func Default() Source {
	return Source{
		Primary:   TypeTags,
		Secondary: TypeAttrs,
		Policy:    PolicyAsk,
	}
}

// ForPath picks the source whose directory is the longest prefix of
// filePath, or the defaults when nothing matches.
func ForPath(sources []Source, filePath string) Source {
	best := Default()
	bestLen := 0

	for _, src := range sources {
		if src.Path == "" || len(src.Path) < bestLen {
			continue
		}
		if hasPathPrefix(filePath, src.Path) && len(src.Path) > bestLen {
			best = src
			bestLen = len(src.Path)
		}
	}

	return best
}

func hasPathPrefix(filePath, dir string) bool {
	if len(filePath) < len(dir) {
		return false
	}
	return filePath[:len(dir)] == dir
}
