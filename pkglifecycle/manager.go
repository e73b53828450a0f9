package pkglifecycle

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds lifecycle manager settings.
type Config struct {
	// Domain is the target deployment packages are associated with.
	Domain string
	// Bucket receives dictionary files before package creation.
	Bucket string
	// PollInterval between lifecycle status checks.
	PollInterval time.Duration
	// MaxPolls bounds each status wait; exceeding it yields ErrPollTimeout.
	MaxPolls uint64
}

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxPolls     = 90
)

// Manager drives package artifacts through their remote lifecycle. It is
// single-threaded; the artifact cache is not safe for concurrent use.
type Manager struct {
	admin      Admin
	store      ObjectStore
	cfg        Config
	collection string
	// artifacts caches resolved references by ownerKey + package name so a
	// file-backed construct resolves its package at most once per run.
	artifacts map[string]*artifact
	logger    *slog.Logger
}

type artifact struct {
	name    string
	id      string
	version string
	ref     string
	state   Status
}

// NewManager creates a package lifecycle manager for one collection's run.
func NewManager(admin Admin, store ObjectStore, collection string, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPolls == 0 {
		cfg.MaxPolls = defaultMaxPolls
	}
	return &Manager{
		admin:      admin,
		store:      store,
		cfg:        cfg,
		collection: collection,
		artifacts:  make(map[string]*artifact),
		logger:     logger,
	}
}

// PackageName derives the deterministic remote name for a dictionary file.
// Identity is this name, not the content hash; content is compared against
// the remote store by checksum.
func PackageName(collection, path string) string {
	mangled := strings.NewReplacer("/", "-", ".", "-", "_", "-").Replace(path)
	return strings.ToLower(fmt.Sprintf("p-%s-%s", collection, mangled))
}

// Ensure makes the dictionary file available as an associated package and
// returns the attribute reference ("analyzers/<packageID>"). Identical
// remote content short-circuits to a no-op; changed content triggers
// upload, update, and re-association.
func (m *Manager) Ensure(ctx context.Context, ownerKey, path string, lines []string) (string, error) {
	name := PackageName(m.collection, path)
	cacheKey := ownerKey + "_" + name
	if a, ok := m.artifacts[cacheKey]; ok {
		m.logger.Debug("Package already resolved", "package", name, "owner", ownerKey)
		return a.ref, nil
	}

	body := []byte(strings.Join(lines, "\n"))

	if err := m.checkBucket(ctx); err != nil {
		return "", err
	}

	names, err := m.admin.ListPackages(ctx)
	if err != nil {
		return "", &LifecycleError{Op: "list", Name: name, Err: err}
	}

	var info PackageInfo
	if !slices.Contains(names, name) {
		info, err = m.createAndAssociate(ctx, name, body)
	} else {
		info, err = m.refreshExisting(ctx, name, body)
	}
	if err != nil {
		return "", err
	}

	a := &artifact{
		name:    name,
		id:      info.ID,
		version: info.Version,
		ref:     "analyzers/" + info.ID,
		state:   StatusActive,
	}
	m.artifacts[cacheKey] = a
	m.logger.Info("Package ready", "package", name, "id", info.ID, "version", info.Version)
	return a.ref, nil
}

// checkBucket verifies existence and accessibility before any upload,
// classifying failures as not-found vs. access-denied.
func (m *Manager) checkBucket(ctx context.Context) error {
	if err := m.store.HeadBucket(ctx, m.cfg.Bucket); err != nil {
		return &LifecycleError{Op: "head bucket", Name: m.cfg.Bucket, Err: err}
	}
	if _, err := m.store.ListObjects(ctx, m.cfg.Bucket, 1); err != nil {
		return &LifecycleError{Op: "list bucket", Name: m.cfg.Bucket, Err: err}
	}
	return nil
}

func (m *Manager) createAndAssociate(ctx context.Context, name string, body []byte) (PackageInfo, error) {
	m.logger.Info("Creating package", "package", name)
	if err := m.store.Upload(ctx, m.cfg.Bucket, name, body); err != nil {
		return PackageInfo{}, &LifecycleError{Op: "upload", Name: name, Err: err}
	}
	info, err := m.admin.CreatePackage(ctx, name, m.cfg.Bucket, name)
	if err != nil {
		return PackageInfo{}, &LifecycleError{Op: "create", Name: name, Err: err}
	}
	if err := m.waitForPackage(ctx, info.ID); err != nil {
		return PackageInfo{}, err
	}
	if err := m.associate(ctx, info.ID, name); err != nil {
		return PackageInfo{}, err
	}
	return m.describeByID(ctx, info.ID)
}

// refreshExisting updates an already-hosted package only when the local
// content differs from the stored object's checksum.
func (m *Manager) refreshExisting(ctx context.Context, name string, body []byte) (PackageInfo, error) {
	obj, err := m.store.HeadObject(ctx, m.cfg.Bucket, name)
	switch {
	case errors.Is(err, ErrObjectNotFound):
		// Package exists but its backing object is gone; re-upload.
		return m.updateAndAssociate(ctx, name, body)
	case err != nil:
		return PackageInfo{}, &LifecycleError{Op: "head object", Name: name, Err: err}
	}

	md5Sum, sha256Sum := checksums(body)
	if obj.ETag == md5Sum || obj.ETag == sha256Sum {
		m.logger.Info("Package content unchanged, skipping update", "package", name)
		info, err := m.admin.DescribePackage(ctx, name)
		if err != nil {
			return PackageInfo{}, &LifecycleError{Op: "describe", Name: name, Err: err}
		}
		return info, nil
	}

	m.logger.Info("Package content changed, updating", "package", name)
	return m.updateAndAssociate(ctx, name, body)
}

func (m *Manager) updateAndAssociate(ctx context.Context, name string, body []byte) (PackageInfo, error) {
	if err := m.store.Upload(ctx, m.cfg.Bucket, name, body); err != nil {
		return PackageInfo{}, &LifecycleError{Op: "upload", Name: name, Err: err}
	}
	info, err := m.admin.DescribePackage(ctx, name)
	if err != nil {
		return PackageInfo{}, &LifecycleError{Op: "describe", Name: name, Err: err}
	}
	if _, err := m.admin.UpdatePackage(ctx, info.ID, m.cfg.Bucket, name); err != nil {
		return PackageInfo{}, &LifecycleError{Op: "update", Name: name, Err: err}
	}
	if err := m.waitForPackage(ctx, info.ID); err != nil {
		return PackageInfo{}, err
	}
	if err := m.associate(ctx, info.ID, name); err != nil {
		return PackageInfo{}, err
	}
	return m.describeByID(ctx, info.ID)
}

func (m *Manager) associate(ctx context.Context, id, name string) error {
	m.logger.Info("Associating package", "package", name, "id", id)
	if _, err := m.admin.AssociatePackage(ctx, id, m.cfg.Domain); err != nil {
		return &LifecycleError{Op: "associate", Name: name, Err: err}
	}
	return m.waitForAssociation(ctx, id, StatusActive)
}

// Dissociate removes a package's domain association and waits for it to
// settle back to AVAILABLE.
func (m *Manager) Dissociate(ctx context.Context, id string) error {
	if _, err := m.admin.DissociatePackage(ctx, id, m.cfg.Domain); err != nil {
		return &LifecycleError{Op: "dissociate", Name: id, Err: err}
	}
	return m.waitForAssociation(ctx, id, StatusAvailable)
}

func (m *Manager) describeByID(ctx context.Context, id string) (PackageInfo, error) {
	info, err := m.admin.DescribePackageByID(ctx, id)
	if err != nil {
		return PackageInfo{}, &LifecycleError{Op: "describe", Name: id, Err: err}
	}
	return info, nil
}

var errPending = errors.New("lifecycle state pending")

// waitForPackage polls until the package reaches AVAILABLE, a terminal
// failure, or the poll budget runs out.
func (m *Manager) waitForPackage(ctx context.Context, id string) error {
	return m.poll(ctx, id, func() (Status, error) {
		info, err := m.admin.DescribePackageByID(ctx, id)
		if err != nil {
			return "", err
		}
		return info.Status, nil
	}, StatusAvailable)
}

// waitForAssociation polls the domain association records until the package
// reaches the wanted status.
func (m *Manager) waitForAssociation(ctx context.Context, id string, want Status) error {
	return m.poll(ctx, id, func() (Status, error) {
		records, err := m.admin.ListPackagesForDomain(ctx, m.cfg.Domain)
		if err != nil {
			return "", err
		}
		for _, r := range records {
			if r.ID == id {
				return r.Status, nil
			}
		}
		// Dissociation completes by dropping the record entirely.
		if want == StatusAvailable {
			return StatusAvailable, nil
		}
		return "", fmt.Errorf("package %s not associated with domain %s", id, m.cfg.Domain)
	}, want)
}

// poll is the bounded replacement for the remote API's open-ended state
// transitions: constant-interval retries up to MaxPolls, surfacing
// ErrPollTimeout instead of waiting forever on a stuck remote.
func (m *Manager) poll(ctx context.Context, id string, check func() (Status, error), want Status) error {
	operation := func() error {
		status, err := check()
		if err != nil {
			return backoff.Permanent(&LifecycleError{Op: "poll", Name: id, Err: err})
		}
		if status == want {
			return nil
		}
		if status.Failed() {
			return backoff.Permanent(&LifecycleError{
				Op:   "poll",
				Name: id,
				Err:  fmt.Errorf("terminal status %s", status),
			})
		}
		m.logger.Debug("Waiting for package state", "id", id, "status", status, "want", want)
		return errPending
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.cfg.PollInterval), m.cfg.MaxPolls),
		ctx,
	)
	err := backoff.Retry(operation, policy)
	if errors.Is(err, errPending) {
		return &LifecycleError{Op: "poll", Name: id, Err: ErrPollTimeout}
	}
	return err
}

// checksums returns the quoted md5 and sha256 hex digests used for ETag
// comparison against the object store.
func checksums(body []byte) (string, string) {
	md5Sum := md5.Sum(body)
	shaSum := sha256.Sum256(body)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", md5Sum)), fmt.Sprintf("%q", fmt.Sprintf("%x", shaSum))
}
