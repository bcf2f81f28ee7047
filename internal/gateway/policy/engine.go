package policy

import (
	"fmt"

	"buildmarket/internal/gateway/domain/model"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/logger"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"go.uber.org/zap"
)

// Ownership rules evaluated on every update and delete. Expressions see two
// variables: `session` (the resolved identity) and `resource` (the stored
// record as it exists before the mutation).
const (
	ruleOwnerOrAdmin = `session.role == 'admin' || ('created_by' in resource && resource.created_by == session.email)`

	// User documents may also be mutated by the subject they describe.
	ruleUser = `session.role == 'admin' || ('uid' in resource && resource.uid == session.uid) || ('created_by' in resource && resource.created_by == session.email)`

	// Either side of a conversation may update a message (read receipts).
	ruleMessage = `session.role == 'admin' || ('created_by' in resource && resource.created_by == session.email) || ('recipient_email' in resource && resource.recipient_email == session.email)`

	// Both parties of a booking may change its status.
	ruleBooking = `session.role == 'admin' || ('created_by' in resource && resource.created_by == session.email) || ('provider_email' in resource && resource.provider_email == session.email)`

	// Reports are moderation records; only admins touch them after filing.
	ruleReport = `session.role == 'admin'`
)

var kindRules = map[model.Kind]string{
	model.KindUser:    ruleUser,
	model.KindMessage: ruleMessage,
	model.KindBooking: ruleBooking,
	model.KindReport:  ruleReport,
}

// Engine evaluates compiled access rules. Rules are fixed at startup; there
// is no runtime rule storage.
type Engine struct {
	programs map[model.Kind]cel.Program
	log      logger.Logger
}

// NewEngine compiles the rule set. A rule that fails to compile is a
// programming error and aborts startup.
func NewEngine(log logger.Logger) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("session", decls.Dyn),
			decls.NewVar("resource", decls.Dyn),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	programs := make(map[model.Kind]cel.Program, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		expr, ok := kindRules[kind]
		if !ok {
			expr = ruleOwnerOrAdmin
		}

		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			log.Error("Failed to compile access rule",
				zap.String("kind", kind.String()),
				zap.Error(issues.Err()))
			return nil, fmt.Errorf("failed to compile rule for %s: %w", kind, issues.Err())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to build program for %s: %w", kind, err)
		}
		programs[kind] = prg
	}

	return &Engine{
		programs: programs,
		log:      log.WithComponent("access_policy"),
	}, nil
}

// Authorize decides whether the session may mutate the resource. A nil
// session is not-authenticated; a false rule result is permission-denied.
func (e *Engine) Authorize(kind model.Kind, session *model.Session, resource model.Entity) error {
	if session == nil {
		return apperrors.ErrNotAuthenticated
	}

	prg, ok := e.programs[kind]
	if !ok {
		return fmt.Errorf("no access rule for kind %s: %w", kind, apperrors.ErrUnknownKind)
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"session":  session.Vars(),
		"resource": map[string]interface{}(resource),
	})
	if err != nil {
		e.log.Error("Access rule evaluation failed",
			zap.String("kind", kind.String()),
			zap.String("uid", session.UID),
			zap.Error(err))
		return fmt.Errorf("rule evaluation failed: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return fmt.Errorf("%s %q: %w", kind, resource.ID(), apperrors.ErrPermissionDenied)
	}
	return nil
}
