package legacy

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kodhe/router/internal/observability/logging"
)

// Status is the locator resolution state.
type Status int

const (
	// StatusUnresolved means resolution has not produced a target yet.
	StatusUnresolved Status = 0
	// StatusModuleRoot means a module or root controller resolved without
	// an explicit controller segment.
	StatusModuleRoot Status = 1
	// StatusController means an explicitly named controller resolved.
	StatusController Status = 2
	// StatusSubfolder means a controller resolved inside a nested subfolder.
	StatusSubfolder Status = 3
	// StatusNotFound is the terminal failure state.
	StatusNotFound Status = -1
)

// Target is the locator's resolution output.
type Target struct {
	Directory  string
	Module     string
	Controller string
	Method     string
	Params     []string
	File       string
	Status     Status
	Segments   []string
}

// NotFound reports whether the target is the terminal failure state.
func (t *Target) NotFound() bool {
	return t == nil || t.Status == StatusNotFound
}

// HandlerProber is the capability the locator needs from the dispatch
// collaborator: existence checks for handler identifiers and methods.
type HandlerProber interface {
	HandlerExists(identifier string) bool
	MethodExists(identifier, method string) bool
}

// Config carries the locator's conventions.
type Config struct {
	// AppControllerDir is the application's root controllers directory.
	AppControllerDir string
	// DefaultController resolves empty segment lists; it may carry a
	// method in "controller/method" form.
	DefaultController string
	// NotFoundOverride, when set, is re-resolved through the same search
	// before resolution gives up.
	NotFoundOverride string
	// TranslateDashes rewrites "-" to "_" in the first three segments.
	TranslateDashes bool
	// FileExtension of controller files. Defaults to ".go".
	FileExtension string
}

// Locator resolves raw URL segments against module and application
// controller directories through an ordered chain of candidate
// resolvers. It never raises for "not found"; a failed resolution is a
// terminal-status target carrying the original segments.
type Locator struct {
	cfg         Config
	index       *ModuleIndex
	rules       []RewriteRule
	moduleRules map[string][]RewriteRule
	prober      HandlerProber
	logger      *logging.Logger
}

// candidateResolver is one rule in the precedence chain. A nil return
// means "no match, try the next rule".
type candidateResolver struct {
	name string
	fn   func(l *Locator, segments []string) *Target
}

// resolverChain fixes the search precedence: module branches before the
// application root, the directory scan last.
var resolverChain = []candidateResolver{
	{name: "module", fn: (*Locator).resolveModule},
	{name: "root_controller", fn: (*Locator).resolveRootController},
	{name: "subfolder_default", fn: (*Locator).resolveSubfolderDefault},
	{name: "subfolder_controller", fn: (*Locator).resolveSubfolderController},
	{name: "directory_scan", fn: (*Locator).resolveDirectoryScan},
}

// NewLocator creates a locator over a module index.
func NewLocator(cfg Config, index *ModuleIndex, prober HandlerProber, logger *logging.Logger) *Locator {
	if cfg.FileExtension == "" {
		cfg.FileExtension = ".go"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if index == nil {
		index = NewModuleIndex(nil, logger)
	}
	return &Locator{
		cfg:         cfg,
		index:       index,
		moduleRules: make(map[string][]RewriteRule),
		prober:      prober,
		logger:      logger,
	}
}

// AddRules appends global rewrite rules from a route-definition file.
func (l *Locator) AddRules(rules ...RewriteRule) {
	l.rules = append(l.rules, rules...)
}

// AddModuleRules registers rewrite rules scoped to one module: they run
// only when the first segment names that module.
func (l *Locator) AddModuleRules(module string, rules ...RewriteRule) {
	l.moduleRules[module] = append(l.moduleRules[module], rules...)
}

// ApplyRouteFile folds a parsed route-definition file into the locator
// configuration and rule set.
func (l *Locator) ApplyRouteFile(file *RouteFile) {
	if file == nil {
		return
	}
	if file.DefaultController != "" {
		l.cfg.DefaultController = file.DefaultController
	}
	if file.NotFoundOverride != "" {
		l.cfg.NotFoundOverride = file.NotFoundOverride
	}
	if file.TranslateDashes {
		l.cfg.TranslateDashes = true
	}
	l.AddRules(file.Rules...)
}

// Locate resolves a method and segment list to a target. The method is
// only consulted by verb-scoped rewrite rules.
func (l *Locator) Locate(method string, segments []string) *Target {
	return l.locate(method, segments, true)
}

func (l *Locator) locate(method string, segments []string, allowOverride bool) *Target {
	original := append([]string(nil), segments...)

	if len(segments) == 0 {
		segments = SplitSegments(l.cfg.DefaultController)
		if len(segments) == 0 {
			return &Target{Status: StatusNotFound, Segments: original}
		}
	}

	if l.cfg.TranslateDashes {
		segments = translateDashes(segments)
	}

	// A namespaced first segment bypasses the filesystem search when the
	// identifier is loadable.
	if strings.Contains(segments[0], `\`) && l.prober != nil && l.prober.HandlerExists(segments[0]) {
		return &Target{
			Controller: segments[0],
			Method:     segmentOr(segments, 1, "index"),
			Params:     tail(segments, 2),
			Status:     StatusController,
			Segments:   original,
		}
	}

	segments = l.applyRewrites(method, segments)

	// A rewrite rule may expand to an empty target; nothing in the
	// resolver chain can act on zero segments.
	if len(segments) > 0 {
		for _, resolver := range resolverChain {
			if target := resolver.fn(l, segments); target != nil {
				target.Segments = original
				l.logger.Debug("legacy segments resolved",
					logging.Strategy(resolver.name),
					logging.Controller(target.Controller),
				)
				return target
			}
		}
	}

	if allowOverride && l.cfg.NotFoundOverride != "" {
		if target := l.locate(method, SplitSegments(l.cfg.NotFoundOverride), false); !target.NotFound() {
			target.Segments = original
			return target
		}
	}

	return &Target{Status: StatusNotFound, Segments: original}
}

// applyRewrites runs the global rules and then any rules scoped to the
// module named by the first segment. The first matching rule in each
// scope wins.
func (l *Locator) applyRewrites(method string, segments []string) []string {
	path := strings.Join(segments, "/")
	for _, rule := range l.rules {
		if rewritten, ok := rule.Apply(method, path); ok {
			segments = rewritten
			break
		}
	}

	if len(segments) == 0 {
		return segments
	}
	path = strings.Join(segments, "/")
	for _, rule := range l.moduleRules[segments[0]] {
		if rewritten, ok := rule.Apply(method, path); ok {
			return rewritten
		}
	}
	return segments
}

// resolveModule tries the first segment as a module name across every
// registered module path.
func (l *Locator) resolveModule(segments []string) *Target {
	module := segments[0]
	if !l.index.Has(module) {
		return nil
	}

	defaultName, _ := l.defaultParts()

	for _, modulePath := range l.index.Paths(module) {
		dir := filepath.Join(modulePath, "controllers")

		if len(segments) == 1 {
			// Module alone: the module's own controller, then the
			// conventional default.
			if file, ok := l.findController(dir, module); ok {
				return &Target{
					Directory: dir, Module: module,
					Controller: module, Method: "index",
					File: file, Status: StatusModuleRoot,
				}
			}
			if defaultName != "" {
				if file, ok := l.findController(dir, defaultName); ok {
					return &Target{
						Directory: dir, Module: module,
						Controller: defaultName, Method: "index",
						File: file, Status: StatusModuleRoot,
					}
				}
			}
			continue
		}

		// Explicit controller segment.
		if file, ok := l.findController(dir, segments[1]); ok {
			return &Target{
				Directory: dir, Module: module,
				Controller: segments[1],
				Method:     segmentOr(segments, 2, "index"),
				Params:     tail(segments, 3),
				File:       file, Status: StatusController,
			}
		}

		// The module's root controller may expose the segment as a
		// callable member.
		if file, ok := l.findController(dir, module); ok && l.prober != nil && l.prober.MethodExists(module, segments[1]) {
			return &Target{
				Directory: dir, Module: module,
				Controller: module, Method: segments[1],
				Params: tail(segments, 2),
				File:   file, Status: StatusModuleRoot,
			}
		}

		// One level of subfolder nesting inside the module.
		if len(segments) >= 3 {
			subdir := filepath.Join(dir, segments[1])
			if file, ok := l.findController(subdir, segments[2]); ok {
				return &Target{
					Directory: subdir, Module: module,
					Controller: segments[2],
					Method:     segmentOr(segments, 3, "index"),
					Params:     tail(segments, 4),
					File:       file, Status: StatusSubfolder,
				}
			}
		}
	}

	return nil
}

// resolveRootController tries a root-level controller file named after
// the first segment.
func (l *Locator) resolveRootController(segments []string) *Target {
	file, ok := l.findController(l.cfg.AppControllerDir, segments[0])
	if !ok {
		return nil
	}
	return &Target{
		Directory:  l.cfg.AppControllerDir,
		Controller: segments[0],
		Method:     segmentOr(segments, 1, "index"),
		Params:     tail(segments, 2),
		File:       file, Status: StatusController,
	}
}

// resolveSubfolderDefault tries a subfolder named after the first
// segment containing the default-named controller.
func (l *Locator) resolveSubfolderDefault(segments []string) *Target {
	defaultName, _ := l.defaultParts()
	if defaultName == "" {
		return nil
	}

	dir := filepath.Join(l.cfg.AppControllerDir, segments[0])
	file, ok := l.findController(dir, defaultName)
	if !ok {
		return nil
	}
	return &Target{
		Directory:  dir,
		Controller: defaultName,
		Method:     segmentOr(segments, 1, "index"),
		Params:     tail(segments, 2),
		File:       file, Status: StatusModuleRoot,
	}
}

// resolveSubfolderController tries a controller inside a subfolder named
// by the first segment, one or two nesting levels deep.
func (l *Locator) resolveSubfolderController(segments []string) *Target {
	if len(segments) < 2 {
		return nil
	}

	dir := filepath.Join(l.cfg.AppControllerDir, segments[0])
	if file, ok := l.findController(dir, segments[1]); ok {
		return &Target{
			Directory:  dir,
			Controller: segments[1],
			Method:     segmentOr(segments, 2, "index"),
			Params:     tail(segments, 3),
			File:       file, Status: StatusSubfolder,
		}
	}

	if len(segments) >= 3 {
		nested := filepath.Join(dir, segments[1])
		if file, ok := l.findController(nested, segments[2]); ok {
			return &Target{
				Directory:  nested,
				Controller: segments[2],
				Method:     segmentOr(segments, 3, "index"),
				Params:     tail(segments, 4),
				File:       file, Status: StatusSubfolder,
			}
		}
	}

	return nil
}

// resolveDirectoryScan looks for the first segment's controller file
// inside any first-level subdirectory of the application controllers
// directory. Last resort before terminal failure.
func (l *Locator) resolveDirectoryScan(segments []string) *Target {
	entries, err := os.ReadDir(l.cfg.AppControllerDir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(l.cfg.AppControllerDir, entry.Name())
		if file, ok := l.findController(dir, segments[0]); ok {
			return &Target{
				Directory:  dir,
				Controller: segments[0],
				Method:     segmentOr(segments, 1, "index"),
				Params:     tail(segments, 2),
				File:       file, Status: StatusSubfolder,
			}
		}
	}
	return nil
}

// findController probes a directory for a controller file named after
// name, tolerating a capitalized file name.
func (l *Locator) findController(dir, name string) (string, bool) {
	for _, candidate := range []string{name, capitalize(name)} {
		path := filepath.Join(dir, candidate+l.cfg.FileExtension)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// defaultParts splits the configured default controller into its
// controller and optional method parts.
func (l *Locator) defaultParts() (controller, method string) {
	parts := SplitSegments(l.cfg.DefaultController)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], "index"
	default:
		return parts[0], parts[1]
	}
}

// translateDashes rewrites "-" to "_" in up to the first three segments.
func translateDashes(segments []string) []string {
	out := append([]string(nil), segments...)
	for i := 0; i < len(out) && i < 3; i++ {
		out[i] = strings.ReplaceAll(out[i], "-", "_")
	}
	return out
}

func segmentOr(segments []string, i int, fallback string) string {
	if i < len(segments) {
		return segments[i]
	}
	return fallback
}

func tail(segments []string, i int) []string {
	if i >= len(segments) {
		return nil
	}
	return append([]string(nil), segments[i:]...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
