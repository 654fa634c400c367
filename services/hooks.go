package services

import (
	"viz-query-service/logger"
)

// ViewHooks receives the view-level side effects of query building and facade changes.
type ViewHooks interface {
	OnViewDisabled(viewID string)
	OnStaleViewsInvalidated(originID string)
	OnFacadeIndicatorChanged()
	OnAlert(message string)
}

// OverlapChecker returns the data ids two views have in common.
type OverlapChecker interface {
	DataOverlap(viewA, viewB, joinKey string) []string
}

// NopHooks ignores every notification.
type NopHooks struct{}

func (NopHooks) OnViewDisabled(string)          {}
func (NopHooks) OnStaleViewsInvalidated(string) {}
func (NopHooks) OnFacadeIndicatorChanged()      {}
func (NopHooks) OnAlert(string)                 {}

// LogHooks writes every notification to the log.
type LogHooks struct {
	log *logger.Logger
}

// NewLogHooks returns hooks logging under the "views" module.
func NewLogHooks() *LogHooks {
	return &LogHooks{log: logger.GetLogger("views")}
}

func (h *LogHooks) OnViewDisabled(viewID string) {
	h.log.Info().Str("view", viewID).Msg("view disabled, no data in common with the facade origin")
}

func (h *LogHooks) OnStaleViewsInvalidated(originID string) {
	h.log.Debug().Str("origin", originID).Msg("views constrained by facade origin are stale")
}

func (h *LogHooks) OnFacadeIndicatorChanged() {
	h.log.Debug().Msg("facade indicator changed")
}

func (h *LogHooks) OnAlert(message string) {
	h.log.Warn().Msg(message)
}

// GraphOverlap intersects the data sources of the leaves reachable from two views.
type GraphOverlap struct {
	Nodes NodeRegistry
}

// DataOverlap implements OverlapChecker. The join key is not needed when the
// leaves name their data source directly.
func (o GraphOverlap) DataOverlap(viewA, viewB, _ string) []string {
	a := o.sources(viewA)
	var common []string
	for _, src := range o.sources(viewB) {
		if containsString(a, src) && !containsString(common, src) {
			common = append(common, src)
		}
	}
	return common
}

func (o GraphOverlap) sources(viewID string) []string {
	trees, err := BuildQueryTrees(o.Nodes, viewID)
	if err != nil {
		return nil
	}
	var sources []string
	for _, t := range trees {
		leaf := t.Leaf()
		src := firstNonEmpty(leaf.DataSource, leaf.ID)
		if !containsString(sources, src) {
			sources = append(sources, src)
		}
	}
	return sources
}
