package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithEnabledActions restricts auditing to the given actions.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) { e.only = toSet(actions) }
}

// WithDisabledActions skips the given actions. It combines with
// WithEnabledActions and WithCategories.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.skip == nil {
			e.skip = make(map[string]struct{}, len(actions))
		}
		for _, a := range actions {
			e.skip[a] = struct{}{}
		}
	}
}

// WithCategories restricts auditing to CategorySubscription, CategoryPayment
// or CategoryWallet events, e.g. only money movements for a finance trail.
func WithCategories(categories ...string) Option {
	return func(e *Extension) { e.categories = toSet(categories) }
}

func (e *Extension) wants(action, category string) bool {
	if _, ok := e.skip[action]; ok {
		return false
	}
	if e.only != nil {
		if _, ok := e.only[action]; !ok {
			return false
		}
	}
	if e.categories != nil {
		if _, ok := e.categories[category]; !ok {
			return false
		}
	}
	return true
}

func toSet(vals []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}
