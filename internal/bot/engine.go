package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/route-weather-bot/internal/common"
	"github.com/i474232898/route-weather-bot/internal/session"
	"github.com/i474232898/route-weather-bot/internal/weather"
)

// SessionStore keeps one session per user.
type SessionStore interface {
	Get(userID int64) (*session.Session, error)
	Save(sess *session.Session)
	Delete(userID int64) bool
}

// EngineConfig holds the collaborators for Engine.
type EngineConfig struct {
	Store      SessionStore
	Resolver   Resolver
	Forecaster Forecaster
	Charts     ChartRenderer
	Messenger  Messenger
	Metrics    *Metrics
	Logger     zerolog.Logger

	// Now stamps session updates (default: time.Now).
	Now func() time.Time
}

// Engine drives route conversations. Handle must not be called concurrently
// for the same user; Dispatcher provides that ordering.
type Engine struct {
	store     SessionStore
	resolver  Resolver
	messenger Messenger
	planner   *Planner
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEngine creates a new Engine.
func NewEngine(cfg EngineConfig) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		store:     cfg.Store,
		resolver:  cfg.Resolver,
		messenger: cfg.Messenger,
		planner: NewPlanner(PlannerConfig{
			Resolver:   cfg.Resolver,
			Forecaster: cfg.Forecaster,
			Charts:     cfg.Charts,
			Metrics:    cfg.Metrics,
			Logger:     cfg.Logger,
		}),
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     now,
	}
}

// collectStep describes how a location-collecting state consumes input.
type collectStep struct {
	// batch splits text input on commas and resolves every entry.
	batch bool

	apply  func(sess *session.Session, locs []weather.Location)
	prompt func(sess *session.Session, locs []weather.Location) Reply
}

var collectSteps = map[session.State]collectStep{
	session.StateAwaitingStart: {
		apply: func(sess *session.Session, locs []weather.Location) {
			sess.Start = &locs[0]
		},
		prompt: func(_ *session.Session, locs []weather.Location) Reply {
			return textReply(formatStartSet(locs[0]), KeyboardLocation)
		},
	},
	session.StateAwaitingEnd: {
		apply: func(sess *session.Session, locs []weather.Location) {
			sess.End = &locs[0]
		},
		prompt: func(_ *session.Session, locs []weather.Location) Reply {
			return textReply(formatEndSet(locs[0]), KeyboardConfirm)
		},
	},
	session.StateAwaitingStops: {
		batch: true,
		apply: func(sess *session.Session, locs []weather.Location) {
			sess.Stops = append(sess.Stops, locs...)
		},
		prompt: func(_ *session.Session, locs []weather.Location) Reply {
			return textReply(formatStopsAdded(locs), KeyboardConfirm)
		},
	},
}

// Handle processes one event and sends the resulting replies.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	logger := e.logger.With().
		Int64("user_id", ev.UserID).
		Str("event", ev.Kind.String()).
		Logger()

	if ev.Kind == EventCommand {
		return e.handleCommand(ctx, ev, logger)
	}

	sess, err := e.store.Get(ev.UserID)
	if err != nil {
		logger.Debug().Err(err).Msg("no active session; event ignored")
		return nil
	}
	logger = logger.With().Str("session_id", sess.ID).Str("state", sess.State.String()).Logger()

	switch ev.Kind {
	case EventText, EventLocation:
		step, ok := collectSteps[sess.State]
		if !ok {
			logger.Info().Msg("input not expected in this state; ignored")
			return nil
		}
		return e.collect(ctx, sess, ev, step, logger)
	case EventButton:
		return e.handleButton(ctx, sess, ev.Text, logger)
	default:
		logger.Warn().Msg("unknown event kind")
		return nil
	}
}

func (e *Engine) handleCommand(ctx context.Context, ev Event, logger zerolog.Logger) error {
	switch ev.Text {
	case CommandStart:
		return e.send(ctx, ev.ChatID, textReply(EscapeMarkdownV2(msgWelcome), KeyboardNone))
	case CommandHelp:
		return e.send(ctx, ev.ChatID, textReply(helpText, KeyboardNone))
	case CommandWeather:
		sess := session.New(ev.UserID, ev.ChatID, e.now())
		e.store.Save(sess)
		e.metrics.sessionStarted(ctx)
		logger.Info().Str("session_id", sess.ID).Msg("route session started")
		return e.send(ctx, ev.ChatID, textReply(EscapeMarkdownV2(msgAskStart), KeyboardLocation))
	case CommandCancel:
		if e.store.Delete(ev.UserID) {
			logger.Info().Msg("route session cancelled")
		}
		return e.send(ctx, ev.ChatID, textReply(EscapeMarkdownV2(msgCancelled), KeyboardRemove))
	default:
		logger.Debug().Str("command", ev.Text).Msg("unknown command ignored")
		return nil
	}
}

// collect resolves the input into one or more locations. On success the step
// stores them and the session advances; on any failure nothing is stored and
// the user is asked again.
func (e *Engine) collect(ctx context.Context, sess *session.Session, ev Event, step collectStep, logger zerolog.Logger) error {
	var locs []weather.Location

	if ev.Kind == EventLocation {
		loc, err := e.resolver.ResolveCoordinates(ctx, ev.Lat, ev.Lon)
		if err != nil {
			logger.Info().Err(err).Float64("lat", ev.Lat).Float64("lon", ev.Lon).Msg("location not resolved")
			return e.reject(ctx, sess, ev, textReply(EscapeMarkdownV2(msgLocationRetry), KeyboardLocation))
		}
		locs = []weather.Location{loc}
	} else {
		names := []string{strings.TrimSpace(ev.Text)}
		if step.batch {
			names = common.SplitList(ev.Text)
		}
		if len(names) == 0 || names[0] == "" {
			return e.reject(ctx, sess, ev, textReply(EscapeMarkdownV2(msgEmptyRetry), KeyboardLocation))
		}

		locs = make([]weather.Location, 0, len(names))
		for _, name := range names {
			loc, err := e.resolver.Resolve(ctx, name)
			if err != nil {
				logger.Info().Err(err).Str("query", name).Int("batch_size", len(names)).Msg("city not resolved")
				return e.reject(ctx, sess, ev, textReply(formatNotFound(name), KeyboardLocation))
			}
			locs = append(locs, loc)
		}
	}

	next, ok := session.Transition(sess.State, session.OutcomeResolved)
	if !ok {
		return nil
	}
	step.apply(sess, locs)
	sess.State = next
	sess.UpdatedAt = e.now()
	e.store.Save(sess)

	logger.Info().Str("next_state", next.String()).Int("resolved", len(locs)).Msg("route point collected")
	return e.send(ctx, sess.ChatID, step.prompt(sess, locs))
}

func (e *Engine) reject(ctx context.Context, sess *session.Session, ev Event, retry Reply) error {
	e.metrics.resolutionFailed(ctx, ev.Kind.String())
	if _, ok := session.Transition(sess.State, session.OutcomeRejected); !ok {
		return nil
	}
	return e.send(ctx, sess.ChatID, retry)
}

func (e *Engine) handleButton(ctx context.Context, sess *session.Session, token string, logger zerolog.Logger) error {
	switch sess.State {
	case session.StateAwaitingStopsOrConfirm:
		var outcome session.Outcome
		switch token {
		case ButtonYes:
			outcome = session.OutcomeYes
		case ButtonNo:
			outcome = session.OutcomeNo
		default:
			logger.Info().Str("button", token).Msg("unexpected button; ignored")
			return nil
		}

		next, _ := session.Transition(sess.State, outcome)
		sess.State = next
		sess.UpdatedAt = e.now()
		e.store.Save(sess)

		if outcome == session.OutcomeYes {
			return e.send(ctx, sess.ChatID, textReply(EscapeMarkdownV2(msgAskStops), KeyboardLocation))
		}
		return e.send(ctx, sess.ChatID, textReply(formatAskDays(sess.Stops), KeyboardDays))

	case session.StateAwaitingDays:
		days, err := strconv.Atoi(token)
		if err != nil || !weather.ValidDays(days) {
			logger.Info().Str("button", token).Msg("unexpected button; ignored")
			return nil
		}

		next, _ := session.Transition(sess.State, session.OutcomeDaysChosen)
		sess.Days = days
		sess.State = next
		sess.UpdatedAt = e.now()
		e.store.Save(sess)

		return e.fanOut(ctx, sess, logger.With().Int("days", days).Logger())

	default:
		logger.Info().Str("button", token).Msg("button not expected in this state; ignored")
		return nil
	}
}

// fanOut forecasts every route point and sends the assembled replies. The
// session is discarded afterwards whatever the outcome.
func (e *Engine) fanOut(ctx context.Context, sess *session.Session, logger zerolog.Logger) error {
	defer e.store.Delete(sess.UserID)

	route := sess.Route()
	if route == nil {
		logger.Error().Msg("route incomplete at fan-out")
		return nil
	}
	names := make([]string, 0, len(route))
	for _, loc := range route {
		names = append(names, loc.Name)
	}

	if err := e.send(ctx, sess.ChatID, textReply(formatFetching(sess.Days), KeyboardNone)); err != nil {
		logger.Warn().Err(err).Msg("progress message not delivered")
	}

	plan, err := e.planner.Plan(ctx, names, sess.Days, true)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warn().Err(err).Msg("fan-out interrupted by shutdown")
			return nil
		}
		e.metrics.fanOutAborted(ctx)

		var pointErr *RoutePointError
		if errors.As(err, &pointErr) {
			logger.Error().Err(err).Str("city", pointErr.Name).Msg("fan-out aborted")
			return e.send(ctx, sess.ChatID, textReply(formatAborted(pointErr.Name), KeyboardNone))
		}
		logger.Error().Err(err).Msg("fan-out failed")
		return err
	}

	replies := assemble(plan)
	logger.Info().
		Int("route_points", len(plan.Entries)).
		Bool("map_link", plan.MapLink != "").
		Int("replies", len(replies)).
		Msg("forecast assembled")

	err = e.send(ctx, sess.ChatID, replies...)
	e.metrics.fanOutCompleted(ctx, sess.Days, len(plan.Entries))
	return err
}

// assemble orders the fan-out output: each point's text and chart, the map
// link, every chart once more, then the completion message.
func assemble(plan *RoutePlan) []Reply {
	replies := make([]Reply, 0, len(plan.Entries)*3+2)

	for _, entry := range plan.Entries {
		replies = append(replies, textReply(formatEntry(entry), KeyboardNone))
		if entry.ChartPath != "" {
			replies = append(replies, imageReply(entry.ChartPath, "*"+EscapeMarkdownV2(entry.City)+"*"))
		}
	}

	if plan.MapLink != "" {
		replies = append(replies, textReply(formatMapLink(plan.MapLink), KeyboardNone))
	}

	seen := make(map[string]struct{}, len(plan.Entries))
	for _, entry := range plan.Entries {
		if entry.ChartPath == "" {
			continue
		}
		if _, dup := seen[entry.ChartPath]; dup {
			continue
		}
		seen[entry.ChartPath] = struct{}{}
		replies = append(replies, imageReply(entry.ChartPath, EscapeMarkdownV2(msgChartCaption)))
	}

	return append(replies, textReply(EscapeMarkdownV2(msgDone), KeyboardNone))
}

// send delivers replies in order. A failed reply does not stop the rest.
func (e *Engine) send(ctx context.Context, chatID int64, replies ...Reply) error {
	var errs []error
	for _, r := range replies {
		if err := e.messenger.Send(ctx, chatID, r); err != nil {
			e.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("reply not delivered")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
