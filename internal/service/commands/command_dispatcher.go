package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/service/nonconformity"
	"github.com/mamadbah2/prodtrack/internal/service/planning"
	"github.com/mamadbah2/prodtrack/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const helpText = `Commands:
/declare <week> <day> <line> <reference> <declared> [modified]
/nc <week> <day> <line> <reference> <rawMaterial> <absence> <yield> <maintenance> <quality> [rawMaterialRef]
/stats <week> <line>
Example: /declare semaine47 lundi L1 REF-A 470`

// Declarer records declared production.
type Declarer interface {
	UpdateDeclaredProduction(ctx context.Context, key models.PlanningKey, in planning.Declaration) (*models.PlanningRecord, error)
}

// Reconciler attributes a shortfall to its causes.
type Reconciler interface {
	Reconcile(ctx context.Context, key models.PlanningKey, in nonconformity.Input) (*models.ReconcileResult, error)
}

// StatsReader provides line statistics.
type StatsReader interface {
	LineWeekStats(ctx context.Context, week, line string) (*models.LineWeekStats, error)
}

// Dispatcher executes parsed supervisor commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	planning   Declarer
	reconciler Reconciler
	stats      StatsReader
	logger     *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(planning Declarer, reconciler Reconciler, stats StatsReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		planning:   planning,
		reconciler: reconciler,
		stats:      stats,
		logger:     logger,
	}
}

// HandleCommand runs cmd and returns the reply text. Business rule rejections
// are turned into replies; only unexpected failures are returned as errors.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	var (
		reply string
		err   error
	)
	switch cmd.Type {
	case models.CommandDeclare:
		reply, err = s.declare(ctx, cmd.Args)
	case models.CommandLoss:
		reply, err = s.reconcile(ctx, cmd.Args)
	case models.CommandStats:
		reply, err = s.lineStats(ctx, cmd.Args)
	case models.CommandHelp:
		return helpText, nil
	default:
		return "", ErrUnsupportedCommand
	}

	switch {
	case err == nil:
		return reply, nil
	case errors.Is(err, ErrInvalidArguments):
		return "", err
	case apperror.KindOf(err) == apperror.KindInternal:
		return "", err
	default:
		return "Rejected: " + err.Error(), nil
	}
}

func (s *Service) declare(ctx context.Context, args []string) (string, error) {
	if len(args) < 5 || len(args) > 6 {
		return "", ErrInvalidArguments
	}
	key, err := parseKey(args)
	if err != nil {
		return "", err
	}
	declared, err := parseQuantity(args[4])
	if err != nil {
		return "", err
	}
	in := planning.Declaration{DeclaredProduction: &declared}
	if len(args) == 6 {
		modified, err := parseQuantity(args[5])
		if err != nil {
			return "", err
		}
		in.ModifiedQty = &modified
	}

	rec, err := s.planning.UpdateDeclaredProduction(ctx, key, in)
	if err != nil {
		return "", err
	}

	reply := fmt.Sprintf("Declared %d / %d for %s %s %s %s (%.2f%%).",
		rec.DeclaredProduction, rec.QuantitySource(), key.Week, key.Day, key.Line, key.Reference, rec.ProductionPercent)
	if rec.Delta < 0 {
		reply += fmt.Sprintf("\nShortfall of %d: send /nc with the 5M breakdown.", -rec.Delta)
	}
	return reply, nil
}

func (s *Service) reconcile(ctx context.Context, args []string) (string, error) {
	if len(args) < 9 {
		return "", ErrInvalidArguments
	}
	key, err := parseKey(args)
	if err != nil {
		return "", err
	}

	causes := make([]*float64, 5)
	for i := range causes {
		v, err := strconv.ParseFloat(strings.Replace(args[4+i], ",", ".", 1), 64)
		if err != nil {
			return "", ErrInvalidArguments
		}
		causes[i] = &v
	}
	in := nonconformity.Input{
		RawMaterial: causes[0],
		Absence:     causes[1],
		YieldLoss:   causes[2],
		Maintenance: causes[3],
		Quality:     causes[4],
	}
	if len(args) > 9 {
		ref := strings.Join(args[9:], " ")
		in.RawMaterialRef = &ref
	}

	res, err := s.reconciler.Reconcile(ctx, key, in)
	if err != nil {
		return "", err
	}
	if res.Action == models.ActionDeleted {
		return fmt.Sprintf("Non-conformity report of %s %s %s %s deleted.", key.Week, key.Day, key.Line, key.Reference), nil
	}
	return fmt.Sprintf("Non-conformity %s: %.2f units explained for a shortfall of %d.",
		res.Action, res.Report.Total, -res.Delta), nil
}

func (s *Service) lineStats(ctx context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrInvalidArguments
	}
	st, err := s.stats.LineWeekStats(ctx, strings.ToLower(args[0]), args[1])
	if err != nil {
		return "", err
	}
	return reporting.FormatLineWeekStats(st), nil
}

func parseKey(args []string) (models.PlanningKey, error) {
	if len(args) < 4 {
		return models.PlanningKey{}, ErrInvalidArguments
	}
	return models.PlanningKey{
		Week:      strings.ToLower(args[0]),
		Day:       models.Day(strings.ToLower(args[1])),
		Line:      args[2],
		Reference: args[3],
	}, nil
}

func parseQuantity(value string) (int, error) {
	qty, err := strconv.Atoi(value)
	if err != nil || qty < 0 {
		return 0, ErrInvalidArguments
	}
	return qty, nil
}
