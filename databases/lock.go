package databases

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLocksName = "scheduler_locks"

// LockDatabase hands out named locks with an expiry so only one instance runs a job
type LockDatabase interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

type lockDatabase struct {
	db  DatabaseHelper
	now func() time.Time
}

// NewLockDatabase initializes a lock database backed by the scheduler_locks collection
func NewLockDatabase(db DatabaseHelper) LockDatabase {
	return &lockDatabase{db: db, now: time.Now}
}

// TryAcquireLock takes the lock when it is free, expired or already held by owner.
// A duplicate key on upsert means another owner holds a live lock.
func (l *lockDatabase) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := l.now().UTC()
	filter := bson.M{
		"_id": name,
		"$or": bson.A{
			bson.M{"owner": owner},
			bson.M{"expiresAt": bson.M{"$lt": now}},
		},
	}
	update := bson.M{"$set": bson.M{"owner": owner, "expiresAt": now.Add(ttl)}}
	_, err := l.db.Collection(schedulerLocksName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *lockDatabase) ReleaseLock(ctx context.Context, name, owner string) error {
	return l.db.Collection(schedulerLocksName).DeleteOne(ctx, bson.M{"_id": name, "owner": owner})
}

type heldLock struct {
	owner     string
	expiresAt time.Time
}

type memoryLocks struct {
	mu    sync.Mutex
	locks map[string]heldLock
	now   func() time.Time
}

// NewMemoryLockDatabase returns a process local LockDatabase
func NewMemoryLockDatabase() LockDatabase {
	return &memoryLocks{locks: map[string]heldLock{}, now: time.Now}
}

func (m *memoryLocks) TryAcquireLock(_ context.Context, name, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if held, ok := m.locks[name]; ok && held.owner != owner && held.expiresAt.After(now) {
		return false, nil
	}
	m.locks[name] = heldLock{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *memoryLocks) ReleaseLock(_ context.Context, name, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.locks[name]; ok && held.owner == owner {
		delete(m.locks, name)
	}
	return nil
}
