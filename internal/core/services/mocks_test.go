package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockCRM implements driven.CRM, serving a scripted page sequence.
type mockCRM struct {
	pages    []driven.OrganizationPage
	phones   map[int64]string
	count    int
	listErr  error
	phoneErr error
	countErr error

	listCalls  []driven.ListOptions
	phoneCalls int
}

var _ driven.CRM = (*mockCRM)(nil)

// ListOrganizations serves the scripted pages in order. Once they run
// out it fails with listErr when set, else returns an empty final page.
func (m *mockCRM) ListOrganizations(_ context.Context, opts driven.ListOptions) (*driven.OrganizationPage, error) {
	m.listCalls = append(m.listCalls, opts)
	idx := len(m.listCalls) - 1
	if idx >= len(m.pages) {
		if m.listErr != nil {
			return nil, m.listErr
		}
		return &driven.OrganizationPage{NextStart: -1}, nil
	}
	page := m.pages[idx]
	return &page, nil
}

func (m *mockCRM) ResolvePhones(_ context.Context, orgs []domain.CRMOrganization) (map[int64]string, error) {
	m.phoneCalls++
	if m.phoneErr != nil {
		return nil, m.phoneErr
	}
	phones := make(map[int64]string)
	for _, org := range orgs {
		if phone, ok := m.phones[org.ID]; ok {
			phones[org.ID] = phone
		}
	}
	return phones, nil
}

func (m *mockCRM) CountOrganizations(_ context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

// mockDesk implements driven.SupportDesk with scriptable failures.
type mockDesk struct {
	mu sync.Mutex

	inboxes    []domain.Inbox
	contacts   map[string][]domain.Contact // search results by query
	allPages   [][]domain.Contact          // ListContacts pages, shifted on delete
	nextID     int64
	count      int
	validToken bool

	createErr func(write domain.ContactWrite) error
	updateErr func(id int64, write domain.ContactWrite) error
	searchErr error
	inboxErr  error
	assignErr error
	labelsErr error
	deleteErr func(id int64) error

	searchCalls int

	created    []domain.ContactWrite
	updated    map[int64][]domain.ContactWrite
	assigned   map[int64]string // contact id -> source id
	labelled   map[int64][]string
	deleted    []int64
	listLabels map[int64][]string
}

var _ driven.SupportDesk = (*mockDesk)(nil)

func newMockDesk() *mockDesk {
	return &mockDesk{
		contacts:   make(map[string][]domain.Contact),
		nextID:     100,
		validToken: true,
		updated:    make(map[int64][]domain.ContactWrite),
		assigned:   make(map[int64]string),
		labelled:   make(map[int64][]string),
		listLabels: make(map[int64][]string),
	}
}

func (m *mockDesk) ValidateToken(context.Context) error {
	if !m.validToken {
		return domain.ErrAuthInvalid
	}
	return nil
}

func (m *mockDesk) ListInboxes(context.Context) ([]domain.Inbox, error) {
	if m.inboxErr != nil {
		return nil, m.inboxErr
	}
	return m.inboxes, nil
}

func (m *mockDesk) SearchContacts(_ context.Context, query string) ([]domain.Contact, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.contacts[query], nil
}

func (m *mockDesk) ListContacts(_ context.Context, page, _ int) ([]domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page < 1 || page > len(m.allPages) {
		return nil, nil
	}
	return m.allPages[page-1], nil
}

func (m *mockDesk) CreateContact(_ context.Context, write domain.ContactWrite) (int64, error) {
	if m.createErr != nil {
		if err := m.createErr(write); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, write)
	m.nextID++
	// Created contacts become findable by later name searches.
	m.contacts[write.Name] = append(m.contacts[write.Name], domain.Contact{
		ID:          m.nextID,
		Name:        write.Name,
		PhoneNumber: write.Phone,
	})
	return m.nextID, nil
}

func (m *mockDesk) UpdateContact(_ context.Context, id int64, write domain.ContactWrite) error {
	if m.updateErr != nil {
		if err := m.updateErr(id, write); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[id] = append(m.updated[id], write)
	return nil
}

func (m *mockDesk) DeleteContact(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		if err := m.deleteErr(id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	// Drop the contact from the paged listing.
	for p, page := range m.allPages {
		kept := page[:0]
		for _, c := range page {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		m.allPages[p] = kept
	}
	// Compact empty pages so page 1 always holds the remainder.
	var pages [][]domain.Contact
	for _, page := range m.allPages {
		if len(page) > 0 {
			pages = append(pages, page)
		}
	}
	m.allPages = pages
	return nil
}

func (m *mockDesk) AssignInbox(_ context.Context, contactID, inboxID int64, sourceID string) error {
	if m.assignErr != nil {
		return m.assignErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigned[contactID] = fmt.Sprintf("%d:%s", inboxID, sourceID)
	return nil
}

func (m *mockDesk) ContactLabels(_ context.Context, contactID int64) ([]string, error) {
	if m.labelsErr != nil {
		return nil, m.labelsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLabels[contactID], nil
}

func (m *mockDesk) AddContactLabels(_ context.Context, contactID int64, labels []string) error {
	if m.labelsErr != nil {
		return m.labelsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labelled[contactID] = append(m.labelled[contactID], labels...)
	return nil
}

func (m *mockDesk) CountContacts(context.Context) (int, error) {
	return m.count, nil
}

// mockNotifier implements driven.Notifier, recording alerts.
type mockNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

var _ driven.Notifier = (*mockNotifier)(nil)

func (m *mockNotifier) Notify(_ context.Context, alert domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockNotifier) sent() []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Alert(nil), m.alerts...)
}

// crmOrg builds a raw CRM record for fetcher tests.
func crmOrg(id int64, name string, label int64) domain.CRMOrganization {
	return domain.CRMOrganization{
		ID:     id,
		Name:   name,
		Label:  label,
		Fields: map[string]any{},
		Raw:    []byte(fmt.Sprintf(`{"id":%d}`, id)),
	}
}

// mirrorOrg builds an unsynced mirror record for syncer tests.
func mirrorOrg(id int64, name, phone string) domain.Organization {
	return domain.Organization{
		CRMOrgID:  id,
		Name:      name,
		Phone:     phone,
		Status:    domain.StatusCustomer,
		UpdatedAt: time.Now().UTC(),
	}
}
