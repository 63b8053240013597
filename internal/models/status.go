package models

// Status is the audit status of an AIH. Values match the integers stored by
// earlier versions of the database (1-4).
type Status int

const (
	StatusApprovedDirect           Status = 1 // terminal
	StatusApprovedIndirect         Status = 2 // pending
	StatusInDiscussion             Status = 3 // pending
	StatusFinalizedAfterDiscussion Status = 4 // terminal
)

var statusNames = map[Status]string{
	StatusApprovedDirect:           "approved-direct",
	StatusApprovedIndirect:         "approved-indirect",
	StatusInDiscussion:             "in-discussion",
	StatusFinalizedAfterDiscussion: "finalized-after-discussion",
}

var statusLabels = map[Status]string{
	StatusApprovedDirect:           "Finalizada com aprovação direta",
	StatusApprovedIndirect:         "Ativa com aprovação indireta",
	StatusInDiscussion:             "Ativa em discussão",
	StatusFinalizedAfterDiscussion: "Finalizada após discussão",
}

// TerminalStatuses and PendingStatuses partition every valid status.
var (
	TerminalStatuses = []Status{StatusApprovedDirect, StatusFinalizedAfterDiscussion}
	PendingStatuses  = []Status{StatusApprovedIndirect, StatusInDiscussion}
)

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal reports whether review is complete.
func (s Status) IsTerminal() bool {
	return s == StatusApprovedDirect || s == StatusFinalizedAfterDiscussion
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Label is the Portuguese description used in exports.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return "Desconhecido"
}

// ParseStatus accepts the enumeration name ("in-discussion").
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// MovementKind is the direction of custody transfer.
type MovementKind string

const (
	// KindEntry: the AIH enters payer (SUS) audit.
	KindEntry MovementKind = "entry"
	// KindExit: the AIH leaves to hospital audit.
	KindExit MovementKind = "exit"
)

func (k MovementKind) Valid() bool {
	return k == KindEntry || k == KindExit
}

// Opposite returns the other kind.
func (k MovementKind) Opposite() MovementKind {
	if k == KindEntry {
		return KindExit
	}
	return KindEntry
}

func (k MovementKind) Label() string {
	switch k {
	case KindEntry:
		return "Entrada na Auditoria SUS"
	case KindExit:
		return "Saída para Auditoria Hospital"
	}
	return string(k)
}
