package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/upkeep/internal/ports/secondary"
)

// Shared mock implementations for the app service tests. Every mock
// stores records in maps and exposes error fields to force failures.

var (
	_ secondary.JobRepository          = (*mockJobRepository)(nil)
	_ secondary.OrgLinkRepository      = (*mockOrgLinkRepository)(nil)
	_ secondary.FavoriteRepository     = (*mockFavoriteRepository)(nil)
	_ secondary.ProfileRepository      = (*mockProfileRepository)(nil)
	_ secondary.PolicyRepository       = (*mockPolicyRepository)(nil)
	_ secondary.ProposalRepository     = (*mockProposalRepository)(nil)
	_ secondary.AppointmentRepository  = (*mockAppointmentRepository)(nil)
	_ secondary.ScheduleRepository     = (*mockScheduleRepository)(nil)
	_ secondary.AvailabilityRepository = (*mockAvailabilityRepository)(nil)
	_ secondary.Notifier               = (*mockNotifier)(nil)
	_ secondary.AuditWriter            = (*mockAuditWriter)(nil)
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// ============================================================================
// Jobs
// ============================================================================

type mockJobRepository struct {
	jobs        map[string]*secondary.JobRecord
	createErr   error
	getErr      error
	listErr     error
	claimErr    error
	claimDenied bool // force the conditional claim to lose
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{jobs: make(map[string]*secondary.JobRecord)}
}

func (m *mockJobRepository) Create(ctx context.Context, job *secondary.JobRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockJobRepository) GetByID(ctx context.Context, id string) (*secondary.JobRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, fmt.Errorf("job %s: %w", id, secondary.ErrNotFound)
}

func (m *mockJobRepository) List(ctx context.Context, filters secondary.JobFilters) ([]*secondary.JobRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*secondary.JobRecord
	for _, j := range m.jobs {
		if filters.OrgID != "" && j.OrgID != filters.OrgID {
			continue
		}
		if filters.Status != "" && j.Status != filters.Status {
			continue
		}
		if filters.ContractorID != "" && j.AssignedContractorID != filters.ContractorID {
			continue
		}
		if filters.Unassigned && j.AssignedContractorID != "" {
			continue
		}
		result = append(result, j)
	}
	return result, nil
}

func (m *mockJobRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if job, ok := m.jobs[id]; ok {
		job.Status = status
	}
	return nil
}

func (m *mockJobRepository) Claim(ctx context.Context, jobID, contractorID, status string, now time.Time) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	if m.claimDenied {
		return false, nil
	}
	job, ok := m.jobs[jobID]
	if !ok || job.AssignedContractorID != "" {
		return false, nil
	}
	job.AssignedContractorID = contractorID
	job.Status = status
	job.UpdatedAt = now
	return true, nil
}

// ============================================================================
// Org links
// ============================================================================

type mockOrgLinkRepository struct {
	links     map[string]*secondary.OrgLinkRecord // contractorID|orgID
	upsertErr error
}

func newMockOrgLinkRepository() *mockOrgLinkRepository {
	return &mockOrgLinkRepository{links: make(map[string]*secondary.OrgLinkRecord)}
}

func linkKey(contractorID, orgID string) string {
	return contractorID + "|" + orgID
}

func (m *mockOrgLinkRepository) addActive(contractorID, orgID string) {
	m.links[linkKey(contractorID, orgID)] = &secondary.OrgLinkRecord{
		ID:           "link-" + contractorID + "-" + orgID,
		ContractorID: contractorID,
		OrgID:        orgID,
		Status:       "active",
	}
}

func (m *mockOrgLinkRepository) Get(ctx context.Context, contractorID, orgID string) (*secondary.OrgLinkRecord, error) {
	if link, ok := m.links[linkKey(contractorID, orgID)]; ok {
		return link, nil
	}
	return nil, fmt.Errorf("org link: %w", secondary.ErrNotFound)
}

func (m *mockOrgLinkRepository) HasActiveLink(ctx context.Context, contractorID, orgID string) (bool, error) {
	link, ok := m.links[linkKey(contractorID, orgID)]
	return ok && link.Status == "active", nil
}

func (m *mockOrgLinkRepository) Upsert(ctx context.Context, contractorID, orgID string, lastJobAt time.Time) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	key := linkKey(contractorID, orgID)
	if link, ok := m.links[key]; ok {
		link.Status = "active"
		link.LastJobAt = &lastJobAt
		return nil
	}
	m.links[key] = &secondary.OrgLinkRecord{
		ID:           "link-" + key,
		ContractorID: contractorID,
		OrgID:        orgID,
		Status:       "active",
		LastJobAt:    &lastJobAt,
	}
	return nil
}

func (m *mockOrgLinkRepository) ListForContractor(ctx context.Context, contractorID string) ([]*secondary.OrgLinkRecord, error) {
	var result []*secondary.OrgLinkRecord
	for _, l := range m.links {
		if l.ContractorID == contractorID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockOrgLinkRepository) DeactivateIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, l := range m.links {
		if l.Status != "active" {
			continue
		}
		if l.LastJobAt == nil || l.LastJobAt.Before(cutoff) {
			l.Status = "inactive"
			n++
		}
	}
	return n, nil
}

// ============================================================================
// Favorites
// ============================================================================

type mockFavoriteRepository struct {
	favorites map[string]bool // orgID|contractorID
}

func newMockFavoriteRepository() *mockFavoriteRepository {
	return &mockFavoriteRepository{favorites: make(map[string]bool)}
}

func (m *mockFavoriteRepository) IsFavorite(ctx context.Context, orgID, contractorID string) (bool, error) {
	return m.favorites[orgID+"|"+contractorID], nil
}

func (m *mockFavoriteRepository) Add(ctx context.Context, orgID, contractorID string) error {
	m.favorites[orgID+"|"+contractorID] = true
	return nil
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, orgID, contractorID string) error {
	delete(m.favorites, orgID+"|"+contractorID)
	return nil
}

func (m *mockFavoriteRepository) ListForOrg(ctx context.Context, orgID string) ([]*secondary.FavoriteRecord, error) {
	var result []*secondary.FavoriteRecord
	prefix := orgID + "|"
	for key, ok := range m.favorites {
		if !ok || len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		result = append(result, &secondary.FavoriteRecord{
			OrgID:        orgID,
			ContractorID: key[len(prefix):],
		})
	}
	return result, nil
}

// ============================================================================
// Profiles
// ============================================================================

type mockProfileRepository struct {
	profiles map[string]*secondary.ProfileRecord
	getErr   error
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{profiles: make(map[string]*secondary.ProfileRecord)}
}

func (m *mockProfileRepository) addAvailable(contractorID string) {
	m.profiles[contractorID] = &secondary.ProfileRecord{
		ID:           "profile-" + contractorID,
		ContractorID: contractorID,
		Available:    true,
	}
}

func (m *mockProfileRepository) GetByContractor(ctx context.Context, contractorID string) (*secondary.ProfileRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.profiles[contractorID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("profile for %s: %w", contractorID, secondary.ErrNotFound)
}

func (m *mockProfileRepository) Upsert(ctx context.Context, profile *secondary.ProfileRecord) error {
	m.profiles[profile.ContractorID] = profile
	return nil
}

func (m *mockProfileRepository) SetAvailable(ctx context.Context, contractorID string, available bool) error {
	if p, ok := m.profiles[contractorID]; ok {
		p.Available = available
	}
	return nil
}

// ============================================================================
// Policies
// ============================================================================

type mockPolicyRepository struct {
	policies  map[string]*secondary.PolicyRecord
	createErr error
	listErr   error
}

func newMockPolicyRepository() *mockPolicyRepository {
	return &mockPolicyRepository{policies: make(map[string]*secondary.PolicyRecord)}
}

func (m *mockPolicyRepository) GetActiveByOrg(ctx context.Context, orgID string) (*secondary.PolicyRecord, error) {
	var best *secondary.PolicyRecord
	for _, p := range m.policies {
		if p.OrgID != orgID || !p.IsActive {
			continue
		}
		if best == nil || p.UpdatedAt.After(best.UpdatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("active policy for %s: %w", orgID, secondary.ErrNotFound)
	}
	return best, nil
}

func (m *mockPolicyRepository) ListByOrg(ctx context.Context, orgID string) ([]*secondary.PolicyRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*secondary.PolicyRecord
	for _, p := range m.policies {
		if p.OrgID == orgID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPolicyRepository) Create(ctx context.Context, policy *secondary.PolicyRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.policies[policy.ID] = policy
	return nil
}

func (m *mockPolicyRepository) Activate(ctx context.Context, id string) error {
	target, ok := m.policies[id]
	if !ok {
		return fmt.Errorf("policy %s: %w", id, secondary.ErrNotFound)
	}
	for _, p := range m.policies {
		if p.OrgID == target.OrgID {
			p.IsActive = false
		}
	}
	target.IsActive = true
	target.UpdatedAt = time.Now().UTC()
	return nil
}

// ============================================================================
// Proposals
// ============================================================================

type mockProposalRepository struct {
	proposals   map[string]*secondary.ProposalRecord
	slots       map[string][]*secondary.SlotRecord // proposalID -> slots
	order       []string                           // creation order
	createErr   error
	finalizeErr error
}

func newMockProposalRepository() *mockProposalRepository {
	return &mockProposalRepository{
		proposals: make(map[string]*secondary.ProposalRecord),
		slots:     make(map[string][]*secondary.SlotRecord),
	}
}

func (m *mockProposalRepository) Create(ctx context.Context, proposal *secondary.ProposalRecord, slots []*secondary.SlotRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.proposals[proposal.ID] = proposal
	m.slots[proposal.ID] = slots
	m.order = append(m.order, proposal.ID)
	return nil
}

func (m *mockProposalRepository) GetByID(ctx context.Context, id string) (*secondary.ProposalRecord, error) {
	if p, ok := m.proposals[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("proposal %s: %w", id, secondary.ErrNotFound)
}

func (m *mockProposalRepository) GetSlots(ctx context.Context, proposalID string) ([]*secondary.SlotRecord, error) {
	return m.slots[proposalID], nil
}

func (m *mockProposalRepository) ListByJob(ctx context.Context, jobID string) ([]*secondary.ProposalRecord, error) {
	var result []*secondary.ProposalRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		if p := m.proposals[m.order[i]]; p.JobID == jobID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockProposalRepository) ListByContractor(ctx context.Context, contractorID string) ([]*secondary.ProposalRecord, error) {
	var result []*secondary.ProposalRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		if p := m.proposals[m.order[i]]; p.ContractorID == contractorID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockProposalRepository) FinalizeSelection(ctx context.Context, proposalID, selectedSlotID string, slotStatuses map[string]string, autoApproved bool, approvalReason string) error {
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	p, ok := m.proposals[proposalID]
	if !ok {
		return fmt.Errorf("proposal %s: %w", proposalID, secondary.ErrNotFound)
	}
	p.Status = "accepted"
	p.SelectedSlotID = selectedSlotID
	p.AutoApproved = autoApproved
	p.AutoApprovalReason = approvalReason
	for _, sl := range m.slots[proposalID] {
		if status, ok := slotStatuses[sl.ID]; ok {
			sl.Status = status
		}
	}
	return nil
}

func (m *mockProposalRepository) Decline(ctx context.Context, proposalID, reason string) error {
	p, ok := m.proposals[proposalID]
	if !ok {
		return fmt.Errorf("proposal %s: %w", proposalID, secondary.ErrNotFound)
	}
	p.Status = "declined"
	p.DeclineReason = reason
	for _, sl := range m.slots[proposalID] {
		sl.Status = "Declined"
	}
	return nil
}

func (m *mockProposalRepository) MarkCountered(ctx context.Context, id string) error {
	p, ok := m.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %s: %w", id, secondary.ErrNotFound)
	}
	p.Status = "countered"
	return nil
}

func (m *mockProposalRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, p := range m.proposals {
		if p.Status == "pending" && !now.Before(p.ExpiresAt) {
			p.Status = "expired"
			n++
		}
	}
	return n, nil
}

// ============================================================================
// Appointments
// ============================================================================

type mockAppointmentRepository struct {
	appointments map[string]*secondary.AppointmentRecord
	createErr    error
}

func newMockAppointmentRepository() *mockAppointmentRepository {
	return &mockAppointmentRepository{appointments: make(map[string]*secondary.AppointmentRecord)}
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appt *secondary.AppointmentRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.appointments[appt.ID] = appt
	return nil
}

func (m *mockAppointmentRepository) GetByID(ctx context.Context, id string) (*secondary.AppointmentRecord, error) {
	if a, ok := m.appointments[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("appointment %s: %w", id, secondary.ErrNotFound)
}

func (m *mockAppointmentRepository) ListByJob(ctx context.Context, jobID string) ([]*secondary.AppointmentRecord, error) {
	var result []*secondary.AppointmentRecord
	for _, a := range m.appointments {
		if a.JobID == jobID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAppointmentRepository) SetTenantApproved(ctx context.Context, id string, approved bool, reason string) error {
	if a, ok := m.appointments[id]; ok {
		a.TenantApproved = approved
		a.ApprovalReason = reason
	}
	return nil
}

// ============================================================================
// Schedule entries
// ============================================================================

type mockScheduleRepository struct {
	entries   map[string]*secondary.ScheduleRecord
	createErr error
	updateErr error
}

func newMockScheduleRepository() *mockScheduleRepository {
	return &mockScheduleRepository{entries: make(map[string]*secondary.ScheduleRecord)}
}

func (m *mockScheduleRepository) Create(ctx context.Context, entry *secondary.ScheduleRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockScheduleRepository) GetByID(ctx context.Context, id string) (*secondary.ScheduleRecord, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("schedule entry %s: %w", id, secondary.ErrNotFound)
}

func (m *mockScheduleRepository) GetByJob(ctx context.Context, jobID string) (*secondary.ScheduleRecord, error) {
	for _, e := range m.entries {
		if e.JobID == jobID {
			return e, nil
		}
	}
	return nil, fmt.Errorf("schedule entry for job %s: %w", jobID, secondary.ErrNotFound)
}

func (m *mockScheduleRepository) ListByTeam(ctx context.Context, teamID string) ([]*secondary.ScheduleRecord, error) {
	var result []*secondary.ScheduleRecord
	for _, e := range m.entries {
		if e.TeamID == teamID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockScheduleRepository) UpdatePlacement(ctx context.Context, id string, start, end time.Time, status string, tenantConfirmed bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("schedule entry %s: %w", id, secondary.ErrNotFound)
	}
	e.StartsAt = &start
	e.EndsAt = &end
	e.Status = status
	e.TenantConfirmed = tenantConfirmed
	return nil
}

func (m *mockScheduleRepository) ClearPlacement(ctx context.Context, id, status string) error {
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("schedule entry %s: %w", id, secondary.ErrNotFound)
	}
	e.StartsAt = nil
	e.EndsAt = nil
	e.Status = status
	e.TenantConfirmed = false
	return nil
}

func (m *mockScheduleRepository) SetConfirmation(ctx context.Context, id, status string, tenantConfirmed bool) error {
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("schedule entry %s: %w", id, secondary.ErrNotFound)
	}
	e.Status = status
	e.TenantConfirmed = tenantConfirmed
	return nil
}

func (m *mockScheduleRepository) SetTimePreference(ctx context.Context, id string, startMinute, durationMinutes int) error {
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("schedule entry %s: %w", id, secondary.ErrNotFound)
	}
	e.PrefStartMinute = &startMinute
	e.PrefDurationMinutes = &durationMinutes
	return nil
}

// ============================================================================
// Availability
// ============================================================================

type mockAvailabilityRepository struct {
	windows   map[string][]*secondary.AvailabilityRecord
	blackouts map[string][]*secondary.BlackoutRecord
}

func newMockAvailabilityRepository() *mockAvailabilityRepository {
	return &mockAvailabilityRepository{
		windows:   make(map[string][]*secondary.AvailabilityRecord),
		blackouts: make(map[string][]*secondary.BlackoutRecord),
	}
}

func (m *mockAvailabilityRepository) ListWindows(ctx context.Context, contractorID string) ([]*secondary.AvailabilityRecord, error) {
	return m.windows[contractorID], nil
}

func (m *mockAvailabilityRepository) AddWindow(ctx context.Context, window *secondary.AvailabilityRecord) error {
	m.windows[window.ContractorID] = append(m.windows[window.ContractorID], window)
	return nil
}

func (m *mockAvailabilityRepository) RemoveWindow(ctx context.Context, id string) error {
	for contractorID, windows := range m.windows {
		for i, w := range windows {
			if w.ID == id {
				m.windows[contractorID] = append(windows[:i], windows[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (m *mockAvailabilityRepository) ListBlackouts(ctx context.Context, contractorID string) ([]*secondary.BlackoutRecord, error) {
	return m.blackouts[contractorID], nil
}

func (m *mockAvailabilityRepository) AddBlackout(ctx context.Context, blackout *secondary.BlackoutRecord) error {
	m.blackouts[blackout.ContractorID] = append(m.blackouts[blackout.ContractorID], blackout)
	return nil
}

func (m *mockAvailabilityRepository) RemoveBlackout(ctx context.Context, id string) error {
	for contractorID, blackouts := range m.blackouts {
		for i, b := range blackouts {
			if b.ID == id {
				m.blackouts[contractorID] = append(blackouts[:i], blackouts[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

// ============================================================================
// Notifier and audit
// ============================================================================

type sentNotification struct {
	UserID   string
	Message  string
	Metadata map[string]string
}

type mockNotifier struct {
	sent      []sentNotification
	notifyErr error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{}
}

func (m *mockNotifier) Notify(ctx context.Context, userID, message string, metadata map[string]string) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.sent = append(m.sent, sentNotification{UserID: userID, Message: message, Metadata: metadata})
	return nil
}

type auditEntry struct {
	Action     string
	EntityType string
	EntityID   string
	Field      string
	OldValue   string
	NewValue   string
}

type mockAuditWriter struct {
	entries  []auditEntry
	writeErr error
}

func newMockAuditWriter() *mockAuditWriter {
	return &mockAuditWriter{}
}

func (m *mockAuditWriter) LogCreate(ctx context.Context, entityType, entityID string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.entries = append(m.entries, auditEntry{Action: "create", EntityType: entityType, EntityID: entityID})
	return nil
}

func (m *mockAuditWriter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.entries = append(m.entries, auditEntry{
		Action:     "update",
		EntityType: entityType,
		EntityID:   entityID,
		Field:      fieldName,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
	return nil
}

func (m *mockAuditWriter) LogDelete(ctx context.Context, entityType, entityID string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.entries = append(m.entries, auditEntry{Action: "delete", EntityType: entityType, EntityID: entityID})
	return nil
}
