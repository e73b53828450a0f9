// Package pkglifecycle manages dictionary-file packages on the target
// deployment: upload to object storage, create or update the hosted
// package, and associate it with the domain, polling until a terminal
// lifecycle state.
package pkglifecycle

import (
	"context"
	"errors"
	"fmt"
)

// Status is a remote package lifecycle state. The remote status field is the
// single source of lifecycle truth.
type Status string

const (
	StatusCreating     Status = "CREATING"
	StatusUpdating     Status = "UPDATING"
	StatusAvailable    Status = "AVAILABLE"
	StatusAssociating  Status = "ASSOCIATING"
	StatusActive       Status = "ACTIVE"
	StatusDissociating Status = "DISSOCIATING"

	StatusCreateFailed       Status = "CREATE_FAILED"
	StatusUpdateFailed       Status = "UPDATE_FAILED"
	StatusDeleteFailed       Status = "DELETE_FAILED"
	StatusAssociationFailed  Status = "ASSOCIATION_FAILED"
	StatusDissociationFailed Status = "DISSOCIATION_FAILED"
)

// Failed reports whether the status is a terminal failure.
func (s Status) Failed() bool {
	switch s {
	case StatusCreateFailed, StatusUpdateFailed, StatusDeleteFailed,
		StatusAssociationFailed, StatusDissociationFailed:
		return true
	}
	return false
}

// PackageInfo describes a hosted package.
type PackageInfo struct {
	ID      string
	Name    string
	Status  Status
	Version string
}

// DomainPackageInfo describes a package's association with a deployment.
type DomainPackageInfo struct {
	ID      string
	Name    string
	Status  Status
	Version string
}

// Admin is the package-management collaborator.
type Admin interface {
	CreatePackage(ctx context.Context, name, bucket, key string) (PackageInfo, error)
	UpdatePackage(ctx context.Context, id, bucket, key string) (PackageInfo, error)
	AssociatePackage(ctx context.Context, id, domain string) (DomainPackageInfo, error)
	DissociatePackage(ctx context.Context, id, domain string) (DomainPackageInfo, error)
	// DescribePackage returns the package with the given name, or
	// ErrPackageNotFound.
	DescribePackage(ctx context.Context, name string) (PackageInfo, error)
	// DescribePackageByID returns the package with the given ID.
	DescribePackageByID(ctx context.Context, id string) (PackageInfo, error)
	// ListPackages returns every hosted package name.
	ListPackages(ctx context.Context) ([]string, error)
	// ListPackagesForDomain returns the association records for a domain.
	ListPackagesForDomain(ctx context.Context, domain string) ([]DomainPackageInfo, error)
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	// ETag is the store's content digest, quoted as returned by the API.
	ETag string
}

// ObjectStore is the object-storage collaborator.
type ObjectStore interface {
	HeadBucket(ctx context.Context, bucket string) error
	ListObjects(ctx context.Context, bucket string, max int) ([]string, error)
	Upload(ctx context.Context, bucket, key string, body []byte) error
	HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// Sentinel errors for collaborator classification.
var (
	ErrPackageNotFound    = errors.New("package not found")
	ErrObjectNotFound     = errors.New("object not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrBucketAccessDenied = errors.New("bucket access denied")
	ErrPollTimeout        = errors.New("lifecycle polling exhausted")
)

// LifecycleError wraps a package admin or object storage failure with the
// operation and artifact it concerned.
type LifecycleError struct {
	Op   string
	Name string
	Err  error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("package %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }
