package fields

import "strings"

// RemoteKind is the canonical remote-status bucket a value classified into.
type RemoteKind int

const (
	RemoteNone RemoteKind = iota
	RemoteFull
	RemoteHybrid
	RemoteOnSite
	RemoteOther
)

const (
	LabelRemote = "Remote"
	LabelHybrid = "Hybrid"
	LabelOnSite = "On-site"
)

// RemoteStatus is a classified remote-status value. Original always holds the
// input; it is what String returns for RemoteOther.
type RemoteStatus struct {
	Kind     RemoteKind
	Original string
}

// ClassifyRemote matches case-insensitively, first rule wins: hybrid, remote,
// on-site/onsite. Anything else keeps the input as RemoteOther.
func ClassifyRemote(raw string) RemoteStatus {
	status := RemoteStatus{Original: raw}
	if strings.TrimSpace(raw) == "" {
		return status
	}
	value := strings.ToLower(raw)
	switch {
	case strings.Contains(value, "hybrid"):
		status.Kind = RemoteHybrid
	case strings.Contains(value, "remote"):
		status.Kind = RemoteFull
	case strings.Contains(value, "on-site"), strings.Contains(value, "onsite"):
		status.Kind = RemoteOnSite
	default:
		status.Kind = RemoteOther
	}
	return status
}

// Matched reports whether a canonical rule applied.
func (r RemoteStatus) Matched() bool {
	return r.Kind == RemoteFull || r.Kind == RemoteHybrid || r.Kind == RemoteOnSite
}

func (r RemoteStatus) String() string {
	switch r.Kind {
	case RemoteFull:
		return LabelRemote
	case RemoteHybrid:
		return LabelHybrid
	case RemoteOnSite:
		return LabelOnSite
	case RemoteOther:
		return r.Original
	default:
		return ""
	}
}
