package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-flows/internal/config"
	"github.com/samvad-hq/samvad-flows/internal/logger"
	"github.com/samvad-hq/samvad-flows/internal/storage"
	"github.com/samvad-hq/samvad-flows/pkg/flows"
	"github.com/samvad-hq/samvad-flows/pkg/publishers"
)

// Runtime wires the flows manager to the token journal and the event sinks.
// Every mutating flow operation that succeeds is announced as an event;
// every successful send is journaled by flow token.
type Runtime struct {
	cfg     *config.Config
	manager *flows.Manager
	store   storage.Store
	fanout  *publishers.Fanout
	log     logger.Logger
}

// NewRuntime builds a runtime from config. Extra manager options are applied
// after the ones derived from config.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...flows.Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	managerOpts := append([]flows.Option{
		flows.WithBaseURL(cfg.GraphBaseURL),
		flows.WithTimeout(cfg.HTTPTimeout),
		flows.WithLogger(log),
	}, opts...)
	manager := flows.NewManager(cfg.AccessToken, cfg.AccountID, cfg.PhoneNumberID, managerOpts...)

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := OpenJournal(cfg, log)
	if err != nil {
		fanout.Close()
		return nil, err
	}

	return &Runtime{
		cfg:     cfg,
		manager: manager,
		store:   store,
		fanout:  fanout,
		log:     log,
	}, nil
}

// OpenJournal opens the flow token journal on its own. It needs no Graph
// credentials and builds no event sinks.
func OpenJournal(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	storeOpts := storage.Options{
		TokenTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"token_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})
	return store, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.DebugObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Manager exposes the underlying flows manager for read-only calls.
func (r *Runtime) Manager() *flows.Manager { return r.manager }

// CreateFlow creates a flow and announces it when an id came back.
func (r *Runtime) CreateFlow(ctx context.Context, name string) (flows.CreateFlowResult, error) {
	res, err := r.manager.CreateFlow(ctx, name)
	if err != nil {
		return res, err
	}
	if res.Created() {
		r.emit(ctx, publishers.NewEvent(publishers.ActionCreated, res.FlowID, res.Response.StatusCode))
	}
	return res, nil
}

// UploadFlowJSON uploads the flow definition at path.
func (r *Runtime) UploadFlowJSON(ctx context.Context, flowID, path string) (*flows.Response, error) {
	resp, err := r.manager.UploadFlowJSON(ctx, flowID, path)
	return r.track(ctx, publishers.ActionAssetUploaded, flowID, resp, err)
}

// UpdateFlowJSON replaces the flow definition with the file at path.
func (r *Runtime) UpdateFlowJSON(ctx context.Context, flowID, path string) (*flows.Response, error) {
	resp, err := r.manager.UpdateFlowJSON(ctx, flowID, path)
	return r.track(ctx, publishers.ActionAssetUpdated, flowID, resp, err)
}

// PublishFlow publishes a draft flow.
func (r *Runtime) PublishFlow(ctx context.Context, flowID string) (*flows.Response, error) {
	resp, err := r.manager.PublishFlow(ctx, flowID)
	return r.track(ctx, publishers.ActionPublished, flowID, resp, err)
}

// DeprecateFlow deprecates a published flow.
func (r *Runtime) DeprecateFlow(ctx context.Context, flowID string) (*flows.Response, error) {
	resp, err := r.manager.DeprecateFlow(ctx, flowID)
	return r.track(ctx, publishers.ActionDeprecated, flowID, resp, err)
}

// UpdateFlow renames a flow.
func (r *Runtime) UpdateFlow(ctx context.Context, flowID, newName string) (*flows.Response, error) {
	resp, err := r.manager.UpdateFlow(ctx, flowID, newName)
	return r.track(ctx, publishers.ActionRenamed, flowID, resp, err)
}

// DeleteFlow deletes a draft flow.
func (r *Runtime) DeleteFlow(ctx context.Context, flowID string) (*flows.Response, error) {
	resp, err := r.manager.DeleteFlow(ctx, flowID)
	return r.track(ctx, publishers.ActionDeleted, flowID, resp, err)
}

// SendFlow sends a flow message, journals its token and announces the send.
// Journal and sink failures are logged; they never fail the send.
func (r *Runtime) SendFlow(ctx context.Context, req flows.SendRequest, mode flows.Mode) (flows.SendResult, error) {
	res, err := r.manager.SendFlow(ctx, req, mode)
	if err != nil || !res.Response.IsSuccess() {
		return res, err
	}

	rec := storage.TokenRecord{
		FlowToken: res.FlowToken,
		FlowID:    req.FlowID,
		Recipient: req.Recipient,
		Mode:      string(mode),
	}
	if err := r.store.RecordToken(rec); err != nil {
		r.log.WarnObj("flow token journal write failed", "journal_error", map[string]any{
			"flow_token": res.FlowToken,
			"error":      err.Error(),
		})
	}

	evt := publishers.NewEvent(publishers.ActionSent, req.FlowID, res.Response.StatusCode)
	evt.FlowToken = res.FlowToken
	evt.Recipient = req.Recipient
	evt.Mode = string(mode)
	r.emit(ctx, evt)
	return res, nil
}

// LookupToken returns the journaled send for a flow token.
func (r *Runtime) LookupToken(token string) (storage.TokenRecord, bool, error) {
	return r.store.LookupToken(token)
}

// Close releases the journal and any sink connections.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runtime) track(ctx context.Context, action, flowID string, resp *flows.Response, err error) (*flows.Response, error) {
	if err != nil {
		return nil, err
	}
	if resp.IsSuccess() {
		r.emit(ctx, publishers.NewEvent(action, flowID, resp.StatusCode))
	}
	return resp, nil
}

func (r *Runtime) emit(ctx context.Context, evt publishers.Event) {
	if r.fanout.Size() == 0 {
		return
	}
	evt.AccountID = r.manager.AccountID()

	delivered, err := r.fanout.Publish(ctx, evt)
	if err != nil {
		r.log.WarnObj("flow event delivery failed", "event_error", map[string]any{
			"event_id":  evt.ID,
			"action":    evt.Action,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	r.log.DebugObj("flow event delivered", "event_meta", map[string]any{
		"event_id":  evt.ID,
		"action":    evt.Action,
		"delivered": delivered,
	})
}
