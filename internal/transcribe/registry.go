package transcribe

// ModelInfo describes one loaded model for metadata endpoints and the
// submission-time estimate heuristic.
type ModelInfo struct {
	Name  string
	Label string
	// EstimateFactor is seconds of processing per megabyte of audio. It feeds
	// the estimated_time hint returned on submission and is display-only.
	EstimateFactor float64
}

type registryEntry struct {
	info        ModelInfo
	transcriber Transcriber
}

// Registry maps model names to loaded transcribers. It is constructed once at
// startup and read-only afterwards, so concurrent processors share it without
// locking and tests substitute fakes freely.
type Registry struct {
	order   []string
	entries map[string]registryEntry
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Register adds a model. It is only called during startup wiring, before the
// registry is shared.
func (r *Registry) Register(info ModelInfo, t Transcriber) {
	if _, ok := r.entries[info.Name]; !ok {
		r.order = append(r.order, info.Name)
	}
	r.entries[info.Name] = registryEntry{info: info, transcriber: t}
}

// Get returns the transcriber for a model name.
func (r *Registry) Get(name string) (Transcriber, bool) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.transcriber, true
}

// DefaultModel returns the first registered model name, or "" when the
// registry is empty.
func (r *Registry) DefaultModel() string {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// Has reports whether the model is loaded.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Models returns registration-ordered model metadata.
func (r *Registry) Models() []ModelInfo {
	infos := make([]ModelInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.entries[name].info)
	}
	return infos
}

// EstimateSeconds returns the coarse processing-time hint for a file size.
// Zero when the model is unknown.
func (r *Registry) EstimateSeconds(model string, sizeBytes int64) float64 {
	entry, ok := r.entries[model]
	if !ok {
		return 0
	}
	sizeMB := float64(sizeBytes) / (1024 * 1024)
	return sizeMB * entry.info.EstimateFactor
}
