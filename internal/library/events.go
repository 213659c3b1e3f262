package library

// Emitter delivers catalog events to whoever is presenting them. A nil
// emitter is replaced by a no-op.
type Emitter func(event string, payload any)

// Event names. Frontends subscribe by name; payload types are listed next
// to each constant.
const (
	EventLoaded      = "library:loaded"       // LoadedPayload
	EventItemUpdated = "library:item-updated" // Entry
	EventItemRemoved = "library:item-removed" // RemovedPayload
	EventBaseOffline = "library:base-offline" // OfflinePayload

	EventScanProgress = "scanner:progress" // ScanProgressPayload
	EventScanDone     = "scanner:done"     // ScanDonePayload

	EventSyncProgress = "sync:progress" // SyncProgressPayload
	EventSyncDone     = "sync:done"     // SyncDonePayload
	EventSyncConflict = "sync:conflict" // SyncConflictPayload
)

type LoadedPayload struct {
	Count int `json:"count"`
}

type RemovedPayload struct {
	Path string `json:"path"`
}

type OfflinePayload struct {
	Base  string `json:"base"`
	Count int    `json:"count"`
}

type ScanProgressPayload struct {
	Base       string  `json:"base"`
	Dirs       int     `json:"dirs"`
	Scanned    int     `json:"scanned"`
	Updated    int     `json:"updated"`
	ElapsedSec float64 `json:"elapsed_sec"`
}

type ScanDonePayload struct {
	Scanned   int  `json:"scanned"`
	Updated   int  `json:"updated"`
	Cancelled bool `json:"cancelled"`
}

type SyncProgressPayload struct {
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Path  string `json:"path"`
}

type SyncDonePayload struct {
	Synced    int `json:"synced"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
}

type SyncConflictPayload struct {
	Path  string `json:"path"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}
