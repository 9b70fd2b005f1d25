package fonts

import (
	"container/list"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/go-text/typesetting/shaping"

	"github.com/dancazarin/brisk-sub002/internal/logging"
)

// ManagerConfig bounds the manager's caches.
type ManagerConfig struct {
	// ShapeCacheLow and ShapeCacheHigh are the LRU watermarks: once
	// the cache exceeds High it is trimmed down to Low.
	ShapeCacheLow  int
	ShapeCacheHigh int
	// BitmapMaxAge is the glyph bitmap GC age in lookups.
	BitmapMaxAge uint64
}

// DefaultManagerConfig returns the default cache bounds.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ShapeCacheLow:  190,
		ShapeCacheHigh: 210,
		BitmapMaxAge:   4096,
	}
}

type faceKey struct {
	family string
	style  Style
	weight Weight
}

type shapeKey struct {
	font Font
	text string
}

type shapeEntry struct {
	key    shapeKey
	shaped *ShapedRuns
	elem   *list.Element
}

// Manager owns the registered faces, the merged fallback chains and
// the shape cache. All methods are safe for concurrent use behind one
// mutex; shaping itself runs outside the lock with pooled shapers.
type Manager struct {
	config ManagerConfig

	mu     sync.Mutex
	faces  map[faceKey]*Face
	merged map[string][]string

	shapeCache map[shapeKey]*shapeEntry
	shapeLRU   *list.List // front = most recent

	shaperPool sync.Pool
}

// NewManager creates a manager with default cache bounds.
func NewManager() *Manager {
	return NewManagerConfig(DefaultManagerConfig())
}

// NewManagerConfig creates a manager; zero config fields take
// defaults.
func NewManagerConfig(cfg ManagerConfig) *Manager {
	def := DefaultManagerConfig()
	if cfg.ShapeCacheLow <= 0 {
		cfg.ShapeCacheLow = def.ShapeCacheLow
	}
	if cfg.ShapeCacheHigh <= cfg.ShapeCacheLow {
		cfg.ShapeCacheHigh = cfg.ShapeCacheLow + (def.ShapeCacheHigh - def.ShapeCacheLow)
	}
	if cfg.BitmapMaxAge == 0 {
		cfg.BitmapMaxAge = def.BitmapMaxAge
	}
	return &Manager{
		config:     cfg,
		faces:      make(map[faceKey]*Face),
		merged:     make(map[string][]string),
		shapeCache: make(map[shapeKey]*shapeEntry),
		shapeLRU:   list.New(),
		shaperPool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// AddFont registers font data under (family, style, weight). Replaces
// an existing registration. Any font-table mutation invalidates the
// shape cache.
func (m *Manager) AddFont(family string, style Style, weight Weight, data []byte) error {
	face, err := newFace(family, style, weight, data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[faceKey{family, style, weight}] = face
	m.clearShapeCacheLocked()
	return nil
}

// AddFontFromFile reads and registers a font file.
func (m *Manager) AddFontFromFile(family string, style Style, weight Weight, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fonts: read %s: %w", path, err)
	}
	return m.AddFont(family, style, weight, data)
}

// RemoveFont drops one registration.
func (m *Manager) RemoveFont(family string, style Style, weight Weight) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.faces, faceKey{family, style, weight})
	m.clearShapeCacheLocked()
}

// AddMergedFont registers family as a fallback chain over sub
// families, tried in order per codepoint.
func (m *Manager) AddMergedFont(family string, sub ...string) error {
	if len(sub) == 0 {
		return ErrEmptyMerged
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merged[family] = append([]string(nil), sub...)
	m.clearShapeCacheLocked()
	return nil
}

// fontDirs lists the OS font directories scanned by InstalledFonts.
func fontDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
	case "darwin":
		home, _ := os.UserHomeDir()
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(home, "Library", "Fonts"),
		}
	default:
		home, _ := os.UserHomeDir()
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
		}
	}
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf", ".ttc":
		return true
	}
	return false
}

// InstalledFonts lists font file paths found in the OS font
// directories.
func InstalledFonts() []string {
	var out []string
	for _, dir := range fontDirs() {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && isFontFile(path) {
				out = append(out, path)
			}
			return nil
		})
	}
	return out
}

// AddSystemFont registers the first installed font whose file name
// contains the family (case-insensitive).
func (m *Manager) AddSystemFont(family string, style Style, weight Weight) error {
	needle := strings.ToLower(strings.ReplaceAll(family, " ", ""))
	for _, path := range InstalledFonts() {
		base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if strings.Contains(strings.ReplaceAll(base, " ", ""), needle) {
			return m.AddFontFromFile(family, style, weight, path)
		}
	}
	return fmt.Errorf("%w: %s (system)", ErrFontNotFound, family)
}

// Metrics resolves the font and returns its primary face metrics at
// the font size.
func (m *Manager) Metrics(fnt Font) (Metrics, error) {
	chain, err := m.resolveChain(fnt)
	if err != nil {
		return Metrics{}, err
	}
	return chain[0].Metrics(fnt.Size), nil
}

// Face resolves the primary face for a font selector.
func (m *Manager) Face(fnt Font) (*Face, error) {
	chain, err := m.resolveChain(fnt)
	if err != nil {
		return nil, err
	}
	return chain[0], nil
}

// Shape shapes text with the font, consulting the shape cache first.
// The returned runs are a private copy the caller may mutate.
func (m *Manager) Shape(fnt Font, text string) (*ShapedRuns, error) {
	key := shapeKey{font: fnt, text: text}
	m.mu.Lock()
	if e, ok := m.shapeCache[key]; ok {
		m.shapeLRU.MoveToFront(e.elem)
		shaped := e.shaped
		m.mu.Unlock()
		return shaped.clone(), nil
	}
	m.mu.Unlock()

	chain, err := m.resolveChain(fnt)
	if err != nil {
		return nil, err
	}

	runes := []rune(text)
	shaped := &ShapedRuns{Text: runes, Font: fnt}
	for _, seg := range splitRuns(runes, chain, fnt.Direction) {
		if seg.control {
			shaped.Runs = append(shaped.Runs, controlRun(fnt, runes, seg))
		} else {
			shaped.Runs = append(shaped.Runs, m.shapeSegment(fnt, runes, seg))
		}
	}

	m.mu.Lock()
	if _, ok := m.shapeCache[key]; !ok {
		e := &shapeEntry{key: key, shaped: shaped}
		e.elem = m.shapeLRU.PushFront(e)
		m.shapeCache[key] = e
		m.trimShapeCacheLocked()
	}
	m.mu.Unlock()

	m.maintainBitmaps()
	return shaped.clone(), nil
}

// resolveChain maps the selector to its fallback face chain: a merged
// family expands to its sub-families in priority order, each resolved
// to the nearest registered style/weight.
func (m *Manager) resolveChain(fnt Font) ([]*Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	families := []string{fnt.Family}
	if sub, ok := m.merged[fnt.Family]; ok {
		families = sub
	}

	var chain []*Face
	for _, family := range families {
		if f := m.matchFaceLocked(family, fnt.Style, fnt.Weight); f != nil {
			chain = append(chain, f)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFontNotFound, fnt.Family)
	}
	return chain, nil
}

// matchFaceLocked finds the registered face closest to the request:
// exact, then same style with nearest weight, then any style with
// nearest weight.
func (m *Manager) matchFaceLocked(family string, style Style, weight Weight) *Face {
	if f, ok := m.faces[faceKey{family, style, weight}]; ok {
		return f
	}
	var best *Face
	bestScore := 1 << 30
	for k, f := range m.faces {
		if k.family != family {
			continue
		}
		score := abs(int(k.weight) - int(weight))
		if k.style != style {
			score += 1000
		}
		if score < bestScore {
			bestScore = score
			best = f
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clearShapeCacheLocked empties the cache. Shaped runs hold face
// pointers, so any table mutation invalidates them wholesale; clearing
// is cheaper than the stale-face hazard.
func (m *Manager) clearShapeCacheLocked() {
	m.shapeCache = make(map[shapeKey]*shapeEntry)
	m.shapeLRU.Init()
}

// trimShapeCacheLocked evicts LRU entries once the high watermark is
// exceeded, down to the low watermark.
func (m *Manager) trimShapeCacheLocked() {
	if len(m.shapeCache) <= m.config.ShapeCacheHigh {
		return
	}
	evicted := 0
	for len(m.shapeCache) > m.config.ShapeCacheLow {
		back := m.shapeLRU.Back()
		if back == nil {
			break
		}
		e := back.Value.(*shapeEntry)
		m.shapeLRU.Remove(back)
		delete(m.shapeCache, e.key)
		evicted++
	}
	logging.Logger().Debug("fonts: shape cache trimmed", "evicted", evicted)
}

// maintainBitmaps runs the age GC over every face bitmap cache.
func (m *Manager) maintainBitmaps() {
	m.mu.Lock()
	faces := make([]*Face, 0, len(m.faces))
	for _, f := range m.faces {
		faces = append(faces, f)
	}
	maxAge := m.config.BitmapMaxAge
	m.mu.Unlock()

	for _, f := range faces {
		f.MaintainBitmaps(maxAge)
	}
}

// ShapeCacheLen reports the current shape cache population.
func (m *Manager) ShapeCacheLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shapeCache)
}
