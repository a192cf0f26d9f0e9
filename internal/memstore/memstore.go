// Package memstore contiene dobles de prueba en memoria para los colaboradores de la
// emisión de facturas, con fallos inyectables por operación. Sólo lo importan los tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
)

// Ledger guarda facturas, archivos y auditoría sin relación entre ellos
type Ledger struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]models.InvoiceRecord
	files    []models.FileRecord
	activity []models.ActivityEntry

	FailCreateInvoice  error
	FailCreateFile     error
	FailAppendActivity error
}

// NewLedger crea un ledger vacío
func NewLedger() *Ledger {
	return &Ledger{invoices: make(map[uuid.UUID]models.InvoiceRecord)}
}

func (l *Ledger) CreateInvoice(_ context.Context, invoice *models.InvoiceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailCreateInvoice != nil {
		return l.FailCreateInvoice
	}
	now := time.Now().UTC()
	invoice.ID = uuid.New()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	l.invoices[invoice.ID] = *invoice
	return nil
}

func (l *Ledger) GetInvoice(_ context.Context, id uuid.UUID) (*models.InvoiceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	invoice, ok := l.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	return &invoice, nil
}

func (l *Ledger) ListInvoicesByClient(_ context.Context, clientID uuid.UUID) ([]models.InvoiceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.InvoiceRecord
	for _, invoice := range l.invoices {
		if invoice.ClientID == clientID {
			out = append(out, invoice)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (l *Ledger) UpdateInvoice(_ context.Context, invoice *models.InvoiceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.invoices[invoice.ID]; !ok {
		return fmt.Errorf("invoice %s: %w", invoice.ID, models.ErrNotFound)
	}
	invoice.UpdatedAt = time.Now().UTC()
	l.invoices[invoice.ID] = *invoice
	return nil
}

func (l *Ledger) DeleteInvoice(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.invoices[id]; !ok {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	delete(l.invoices, id)
	return nil
}

func (l *Ledger) CreateFile(_ context.Context, file *models.FileRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailCreateFile != nil {
		return l.FailCreateFile
	}
	file.ID = uuid.New()
	file.CreatedAt = time.Now().UTC()
	l.files = append(l.files, *file)
	return nil
}

func (l *Ledger) ListFilesByClient(_ context.Context, clientID uuid.UUID) ([]models.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.FileRecord
	for _, file := range l.files {
		if file.ClientID == clientID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (l *Ledger) DeleteFile(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, file := range l.files {
		if file.ID == id {
			l.files = append(l.files[:i], l.files[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
}

func (l *Ledger) AppendActivity(_ context.Context, entry *models.ActivityEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailAppendActivity != nil {
		return l.FailAppendActivity
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	l.activity = append(l.activity, *entry)
	return nil
}

func (l *Ledger) ListActivityByClient(_ context.Context, clientID uuid.UUID) ([]models.ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.ActivityEntry
	for _, entry := range l.activity {
		if entry.ClientID == clientID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Counts retorna cuántas facturas, archivos y entradas de auditoría hay
func (l *Ledger) Counts() (invoices, files, activity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.invoices), len(l.files), len(l.activity)
}

// Storage guarda objetos por ruta
type Storage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	puts    int

	FailPut       error
	FailSignedURL error
	FailDelete    error
}

// NewStorage crea un almacenamiento vacío
func NewStorage() *Storage {
	return &Storage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *Storage) Put(_ context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		return s.FailPut
	}
	s.puts++
	s.objects[path] = append([]byte(nil), data...)
	s.types[path] = contentType
	return nil
}

func (s *Storage) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", path, models.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *Storage) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	if s.FailSignedURL != nil {
		return "", s.FailSignedURL
	}
	return fmt.Sprintf("https://storage.test/sign/%s?expires=%d", path, int(ttl.Seconds())), nil
}

func (s *Storage) PublicURL(path string) string {
	return "https://storage.test/public/" + path
}

func (s *Storage) Delete(_ context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return s.FailDelete
	}
	for _, path := range paths {
		delete(s.objects, path)
		delete(s.types, path)
	}
	return nil
}

// Has indica si existe un objeto en la ruta
func (s *Storage) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

// ContentType retorna el tipo MIME con el que se guardó la ruta
func (s *Storage) ContentType(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[path]
}

// Puts retorna cuántas subidas se completaron
func (s *Storage) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Clients es un directorio de clientes fijo
type Clients struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]models.ClientProfile
}

// NewClients crea el directorio con los perfiles dados
func NewClients(profiles ...models.ClientProfile) *Clients {
	c := &Clients{profiles: make(map[uuid.UUID]models.ClientProfile)}
	for _, p := range profiles {
		c.profiles[p.ID] = p
	}
	return c
}

func (c *Clients) GetClientProfile(_ context.Context, id uuid.UUID) (*models.ClientProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.profiles[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
	}
	return &p, nil
}

// Notifier registra los avisos recibidos. Si Gate no es nil, espera a que se cierre.
type Notifier struct {
	mu    sync.Mutex
	calls []uuid.UUID

	Err  error
	Gate chan struct{}
}

func (n *Notifier) NotifyInvoiceCreated(ctx context.Context, invoiceID uuid.UUID) error {
	if n.Gate != nil {
		select {
		case <-n.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, invoiceID)
	return n.Err
}

// Calls retorna los ids notificados
func (n *Notifier) Calls() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uuid.UUID(nil), n.calls...)
}

// Guard reserva números por cliente
type Guard struct {
	mu       sync.Mutex
	reserved map[string]bool

	FailReserve error
}

// NewGuard crea un guard sin reservas
func NewGuard() *Guard {
	return &Guard{reserved: make(map[string]bool)}
}

func (g *Guard) Reserve(_ context.Context, clientID uuid.UUID, number string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailReserve != nil {
		return false, g.FailReserve
	}
	key := clientID.String() + ":" + number
	if g.reserved[key] {
		return false, nil
	}
	g.reserved[key] = true
	return true, nil
}

func (g *Guard) Release(_ context.Context, clientID uuid.UUID, number string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.reserved, clientID.String()+":"+number)
	return nil
}

// Reserved indica si el número sigue reservado
func (g *Guard) Reserved(clientID uuid.UUID, number string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reserved[clientID.String()+":"+number]
}
