package dia

import (
	"sync"
	"time"
)

// DirectoryCache: DIA kullanıcı dizini ve üst işlem türü listesi için süre
// bazlı önbellek. Görüntüleme zenginleştirmesi dışında kullanılmaz; süresi
// dolunca ya da Invalidate ile tazelenir.
type DirectoryCache struct {
	ttl time.Duration

	mu            sync.Mutex
	users         map[uint]cachedUsers
	approvalTypes map[uint]cachedTypes
}

type cachedUsers struct {
	data      map[int]string
	fetchedAt time.Time
}

type cachedTypes struct {
	data      []ApprovalType
	fetchedAt time.Time
}

func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DirectoryCache{
		ttl:           ttl,
		users:         make(map[uint]cachedUsers),
		approvalTypes: make(map[uint]cachedTypes),
	}
}

// Users: kullanıcıya ait DIA kullanıcı dizinini önbellekten ya da DIA'dan verir
func (c *DirectoryCache) Users(userID uint) (map[int]string, error) {
	c.mu.Lock()
	if entry, ok := c.users[userID]; ok && time.Since(entry.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return entry.data, nil
	}
	c.mu.Unlock()

	sess, err := GetValidSession(userID)
	if err != nil {
		return nil, err
	}
	dir, err := FetchUserDirectory(sess)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.users[userID] = cachedUsers{data: dir, fetchedAt: time.Now()}
	c.mu.Unlock()
	return dir, nil
}

// ApprovalTypes: üst işlem türü listesini önbellekten ya da DIA'dan verir
func (c *DirectoryCache) ApprovalTypes(userID uint) ([]ApprovalType, error) {
	c.mu.Lock()
	if entry, ok := c.approvalTypes[userID]; ok && time.Since(entry.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return entry.data, nil
	}
	c.mu.Unlock()

	sess, err := GetValidSession(userID)
	if err != nil {
		return nil, err
	}
	types, err := FetchApprovalTypes(sess)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.approvalTypes[userID] = cachedTypes{data: types, fetchedAt: time.Now()}
	c.mu.Unlock()
	return types, nil
}

// Invalidate: kullanıcının önbelleğini düşürür (DIA ayarları değişince çağrılır)
func (c *DirectoryCache) Invalidate(userID uint) {
	c.mu.Lock()
	delete(c.users, userID)
	delete(c.approvalTypes, userID)
	c.mu.Unlock()
}
