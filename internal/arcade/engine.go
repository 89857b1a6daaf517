package arcade

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

var ErrNoRenderer = errors.New("arcade: renderer is required")

const (
	// Step is the fixed simulation timestep in seconds
	Step = 1.0 / 60
	// maxFrameTime caps how much simulated time one frame may catch up
	maxFrameTime = 0.25

	cannonEase       = 10
	recoilRecovery   = 30
	recoilKick       = 15
	muzzleLength     = 40
	projectileRadius = 8
	popInRate        = 2
	particleCount    = 12
	particleFade     = 2
)

// Renderer draws a frame. The view's slices are only valid during the call.
type Renderer interface {
	Draw(v View)
}

// View is a read-only snapshot handed to the renderer
type View struct {
	State       GameState
	Stats       GameStats
	Round       RoundData
	Width       float64
	Height      float64
	Cannon      Cannon
	Targets     []Target
	Projectiles []Projectile
	Particles   []Particle
}

// Config holds engine settings
type Config struct {
	Width           float64
	Height          float64
	Lives           int
	ProjectileSpeed float64       // pixels per step
	NextRoundDelay  time.Duration // simulated time between a hit and the next round
	Rand            *rand.Rand    // drives rounds and particles; seeded from the clock when nil
}

// DefaultConfig returns the standard 800x600 setup with three lives
func DefaultConfig() Config {
	return Config{
		Width:           800,
		Height:          600,
		Lives:           3,
		ProjectileSpeed: 15,
		NextRoundDelay:  time.Second,
	}
}

// Engine runs the cannon game on a fixed timestep. All methods must be called
// from the goroutine that owns the engine.
type Engine struct {
	cfg      Config
	renderer Renderer
	frames   FrameScheduler
	rounds   *RoundManager
	rng      *rand.Rand

	queue    *EventQueue
	handlers []Handler

	state  GameState
	stats  GameStats
	round  RoundData
	pool   []Card
	cannon Cannon

	targets     []Target
	projectiles arena[Projectile]
	particles   arena[Particle]

	running     bool
	frameID     FrameID
	lastFrame   time.Time
	accumulator float64
	simTime     float64
	nextRoundAt float64 // simulated time of the pending round change, <0 when none
}

// NewEngine creates an engine in the MENU state
func NewEngine(cfg Config, renderer Renderer, frames FrameScheduler) (*Engine, error) {
	if renderer == nil {
		return nil, ErrNoRenderer
	}
	if frames == nil {
		return nil, errors.New("arcade: frame scheduler is required")
	}
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.Lives < 1 {
		cfg.Lives = def.Lives
	}
	if cfg.ProjectileSpeed <= 0 {
		cfg.ProjectileSpeed = def.ProjectileSpeed
	}
	if cfg.NextRoundDelay < 0 {
		cfg.NextRoundDelay = 0
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		cfg:         cfg,
		renderer:    renderer,
		frames:      frames,
		rounds:      NewRoundManager(rng),
		rng:         rng,
		queue:       NewEventQueue(),
		state:       StateMenu,
		nextRoundAt: -1,
	}
	e.resetCannon()
	return e, nil
}

// Subscribe registers h to receive events. Events are delivered at the end
// of each frame and right after input handling, in the order they occurred.
func (e *Engine) Subscribe(h Handler) {
	e.handlers = append(e.handlers, h)
}

func (e *Engine) resetCannon() {
	e.cannon = Cannon{
		Pos:         Vec2{e.cfg.Width / 2, e.cfg.Height - 40},
		Angle:       -math.Pi / 2,
		TargetAngle: -math.Pi / 2,
	}
}

// StartGame resets the stats, loads the first round from pool and starts the loop
func (e *Engine) StartGame(pool []Card) error {
	if len(pool) == 0 {
		return ErrEmptyCardPool
	}
	e.pool = append([]Card(nil), pool...)
	return e.Restart()
}

// Restart begins a new game with the last pool
func (e *Engine) Restart() error {
	if len(e.pool) == 0 {
		return ErrEmptyCardPool
	}
	e.stats = GameStats{Lives: e.cfg.Lives, Level: 1}
	e.simTime = 0
	e.nextRoundAt = -1
	e.resetCannon()
	if err := e.loadNextRound(); err != nil {
		return err
	}
	e.state = StatePlaying
	e.Start()
	return nil
}

// Start resumes the frame loop of a game in progress
func (e *Engine) Start() {
	if e.running || e.state != StatePlaying {
		return
	}
	e.running = true
	e.lastFrame = time.Time{}
	e.accumulator = 0
	// A round cleared before Stop lost its pending change
	if e.nextRoundAt < 0 && !e.hasLiveAnswer() {
		e.nextRoundAt = e.simTime + e.cfg.NextRoundDelay.Seconds()
	}
	e.requestFrame()
}

func (e *Engine) hasLiveAnswer() bool {
	for _, t := range e.targets {
		if t.IsCorrect && t.IsAlive {
			return true
		}
	}
	return false
}

// Stop halts the loop, cancelling the pending frame and any pending round
// change. It is safe to call in any state and more than once.
func (e *Engine) Stop() {
	e.running = false
	if e.frameID != 0 {
		e.frames.CancelFrame(e.frameID)
		e.frameID = 0
	}
	e.nextRoundAt = -1
}

// Running reports whether the frame loop is active
func (e *Engine) Running() bool { return e.running }

// State returns the current game state
func (e *Engine) State() GameState { return e.state }

// Stats returns the current game stats
func (e *Engine) Stats() GameStats { return e.stats }

// Round returns the round being played
func (e *Engine) Round() RoundData { return e.round }

// Cannon returns the cannon state
func (e *Engine) Cannon() Cannon { return e.cannon }

// Targets returns a copy of the current targets
func (e *Engine) Targets() []Target { return append([]Target(nil), e.targets...) }

// Projectiles returns a copy of the live projectiles
func (e *Engine) Projectiles() []Projectile {
	return append([]Projectile(nil), e.projectiles.items...)
}

// Particles returns a copy of the live particles
func (e *Engine) Particles() []Particle {
	return append([]Particle(nil), e.particles.items...)
}

func (e *Engine) requestFrame() {
	if e.frameID == 0 {
		e.frameID = e.frames.RequestFrame(e.onFrame)
	}
}

func (e *Engine) onFrame(now time.Time) {
	e.frameID = 0
	if !e.running {
		return
	}

	if !e.lastFrame.IsZero() {
		elapsed := now.Sub(e.lastFrame).Seconds()
		e.accumulator += math.Max(0, math.Min(elapsed, maxFrameTime))
	}
	e.lastFrame = now

	for e.running && e.accumulator >= Step {
		e.Update(Step)
		e.accumulator -= Step
	}

	e.renderer.Draw(e.view())
	e.dispatch()

	if e.running {
		e.requestFrame()
	}
}

func (e *Engine) view() View {
	return View{
		State:       e.state,
		Stats:       e.stats,
		Round:       e.round,
		Width:       e.cfg.Width,
		Height:      e.cfg.Height,
		Cannon:      e.cannon,
		Targets:     e.targets,
		Projectiles: e.projectiles.items,
		Particles:   e.particles.items,
	}
}

func (e *Engine) dispatch() {
	for _, ev := range e.queue.Consume() {
		for _, h := range e.handlers {
			h.HandleEvent(ev)
		}
	}
}

func (e *Engine) emit(t EventType, target Target) {
	e.queue.Push(Event{
		Type:   t,
		Target: target,
		Answer: e.round.CorrectCard,
		Round:  e.stats.Round,
		Stats:  e.stats,
	})
}

func (e *Engine) loadNextRound() error {
	level := e.stats.Round/3 + 1
	round, err := e.rounds.GenerateRound(level, e.pool)
	if err != nil {
		return err
	}
	e.round = round
	e.stats.Round++
	e.stats.Level = level
	e.targets = e.rounds.CreateTargets(round, e.cfg.Width, e.cfg.Height)
	e.projectiles.reset()
	e.particles.reset()
	return nil
}

// HandleInput resolves a click at (x, y) to the closest live target under the
// pointer. The correct target is shot at; a wrong one costs a life at once.
// Input is ignored unless a round is in play.
func (e *Engine) HandleInput(x, y float64) {
	if e.state != StatePlaying || !e.running || e.nextRoundAt >= 0 {
		return
	}

	pointer := Vec2{x, y}
	picked := -1
	best := math.Inf(1)
	for i := range e.targets {
		t := &e.targets[i]
		if !t.IsAlive {
			continue
		}
		if d := pointer.Dist(t.Pos); d < t.Radius && d < best {
			picked, best = i, d
		}
	}
	if picked < 0 {
		return
	}

	e.shootAt(&e.targets[picked])
	e.dispatch()
}

// PickIndex acts as a click on the i-th live target in display order
func (e *Engine) PickIndex(i int) {
	n := 0
	for _, t := range e.targets {
		if !t.IsAlive {
			continue
		}
		if n == i {
			e.HandleInput(t.Pos.X, t.Pos.Y)
			return
		}
		n++
	}
}

func (e *Engine) shootAt(t *Target) {
	e.cannon.TargetAngle = t.Pos.Sub(e.cannon.Pos).Angle()

	if !t.IsCorrect {
		t.State = StateWrong
		e.stats.Streak = 0
		e.stats.Lives--
		e.stats.WrongCount++
		e.emit(EventWrongTarget, *t)
		if e.stats.Lives <= 0 {
			e.stats.Lives = 0
			e.state = StateGameOver
			e.Stop()
			e.emit(EventGameOver, Target{})
			e.renderer.Draw(e.view())
		}
		return
	}

	e.cannon.Recoil = recoilKick
	angle := e.cannon.TargetAngle
	speed := e.cfg.ProjectileSpeed
	origin := e.cannon.Pos.Add(FromAngle(angle, muzzleLength))
	e.projectiles.add(func(id EntityID) Projectile {
		return Projectile{
			ID:       id,
			Pos:      origin,
			Vel:      FromAngle(angle, speed),
			Radius:   projectileRadius,
			Active:   true,
			TargetID: t.ID,
		}
	})
	e.emit(EventShot, *t)
}

// Update advances the simulation by dt seconds. Entity velocities are in
// pixels per step, so dt only drives easing, decay and timers.
func (e *Engine) Update(dt float64) {
	if e.state != StatePlaying {
		return
	}
	e.simTime += dt
	w, h := e.cfg.Width, e.cfg.Height

	e.cannon.Angle += (e.cannon.TargetAngle - e.cannon.Angle) * cannonEase * dt
	e.cannon.Recoil = math.Max(0, e.cannon.Recoil-recoilRecovery*dt)

	for i := range e.targets {
		t := &e.targets[i]
		if !t.IsAlive {
			continue
		}
		if t.Scale < 1 {
			t.Scale = math.Min(1, t.Scale+popInRate*dt)
		}
		t.Pos = t.Pos.Add(t.Vel)

		if t.Pos.X < t.Radius {
			t.Pos.X = t.Radius
			t.Vel.X = -t.Vel.X
		}
		if t.Pos.X > w-t.Radius {
			t.Pos.X = w - t.Radius
			t.Vel.X = -t.Vel.X
		}
		if t.Pos.Y < t.Radius {
			t.Pos.Y = t.Radius
			t.Vel.Y = -t.Vel.Y
		}
		// The bottom band is kept clear for the cannon
		if t.Pos.Y > h-t.Radius*2 {
			t.Pos.Y = h - t.Radius*2
			t.Vel.Y = -t.Vel.Y
		}

		if t.State == StateWrong {
			t.Pos.X += math.Sin(e.simTime*1000/50) * 2
		}
	}

	for i := range e.projectiles.items {
		p := &e.projectiles.items[i]
		if !p.Active {
			continue
		}
		target := e.findTarget(p.TargetID)
		if target != nil {
			// Projectiles home on their target so a correct pick always lands
			p.Vel = FromAngle(target.Pos.Sub(p.Pos).Angle(), p.Vel.Len())
		}
		p.Pos = p.Pos.Add(p.Vel)

		if p.Pos.X < 0 || p.Pos.X > w || p.Pos.Y < 0 || p.Pos.Y > h {
			p.Active = false
			continue
		}
		if target != nil && p.Pos.Dist(target.Pos) < target.Radius+p.Radius {
			p.Active = false
			e.hit(target)
		}
	}

	for i := range e.particles.items {
		pt := &e.particles.items[i]
		pt.Pos = pt.Pos.Add(pt.Vel)
		pt.Life -= particleFade * dt
	}

	if e.nextRoundAt >= 0 && e.simTime >= e.nextRoundAt {
		e.nextRoundAt = -1
		e.emit(EventRoundComplete, Target{})
		if err := e.loadNextRound(); err != nil {
			e.state = StateGameOver
			e.Stop()
			e.emit(EventGameOver, Target{})
		}
	}

	e.projectiles.sweep(func(p *Projectile) bool { return p.Active })
	e.particles.sweep(func(p *Particle) bool { return p.Life > 0 })
}

func (e *Engine) findTarget(id string) *Target {
	for i := range e.targets {
		if e.targets[i].ID == id && e.targets[i].IsAlive {
			return &e.targets[i]
		}
	}
	return nil
}

func (e *Engine) hit(t *Target) {
	if !t.IsAlive || !t.IsCorrect {
		return
	}
	t.IsAlive = false
	e.explode(t.Pos)

	e.stats.Streak++
	e.stats.Score += 100 * e.stats.Streak
	e.stats.MaxStreak = max(e.stats.MaxStreak, e.stats.Streak)
	e.stats.CorrectCount++
	e.emit(EventTargetHit, *t)

	if e.nextRoundAt < 0 {
		e.nextRoundAt = e.simTime + e.cfg.NextRoundDelay.Seconds()
	}
}

func (e *Engine) explode(at Vec2) {
	for i := 0; i < particleCount; i++ {
		angle := e.rng.Float64() * math.Pi * 2
		speed := e.rng.Float64()*5 + 2
		size := e.rng.Float64()*4 + 2
		e.particles.add(func(id EntityID) Particle {
			return Particle{
				ID:      id,
				Pos:     at,
				Vel:     FromAngle(angle, speed),
				Life:    1,
				MaxLife: 1,
				Size:    size,
			}
		})
	}
}
