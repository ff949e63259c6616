package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"vendormatch/internal/services/matching/domain"
)

func batchRegistry() *memRegistry {
	return &memRegistry{entities: []domain.RegisteredEntity{
		{ID: 1, Name: "Acme Inc", Email: "a@x.com"},
		{ID: 2, Name: "Globex", Email: "g@x.com"},
		{ID: 3, Name: "Initech", Email: "i@x.com"},
	}}
}

func names(rs []domain.ResolutionResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.QueryName
	}
	return out
}

func TestValidateBatch_OneVendorResultPerRow(t *testing.T) {
	rows := []domain.BatchRow{
		{VendorName: "Acme Inc"},
		{VendorName: "Globex"},
		{VendorName: "Umbrella"},
		{VendorName: "Initech"},
	}
	rep, err := newSvc(batchRegistry(), Config{Dedupe: true}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.VendorResults) != len(rows) {
		t.Fatalf("vendor results = %d, want %d", len(rep.VendorResults), len(rows))
	}
	if want := []string{"Acme Inc", "Globex", "Umbrella", "Initech"}; !reflect.DeepEqual(names(rep.VendorResults), want) {
		t.Fatalf("order = %v, want %v", names(rep.VendorResults), want)
	}
	if len(rep.DeliveryResults) != 0 || len(rep.EmailConflicts) != 0 {
		t.Fatalf("unexpected delivery/email entries: %+v", rep)
	}
	if rep.Unresolved() != 1 {
		t.Fatalf("unresolved = %d, want 1", rep.Unresolved())
	}
}

func TestValidateBatch_DeliverySameAsVendorSkipped(t *testing.T) {
	rows := []domain.BatchRow{
		{VendorName: "Acme Inc", DeliveryName: "Acme Inc"},
		{VendorName: "Globex", DeliveryName: "Initech"},
	}
	rep, err := newSvc(batchRegistry(), Config{}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.DeliveryResults) != 1 || rep.DeliveryResults[0].QueryName != "Initech" {
		t.Fatalf("delivery results = %+v", rep.DeliveryResults)
	}
	if rep.DeliveryResults[0].Role != domain.RoleDelivery || !rep.DeliveryResults[0].Exists {
		t.Fatalf("delivery result = %+v", rep.DeliveryResults[0])
	}
}

func TestValidateBatch_EmailConflicts(t *testing.T) {
	rows := []domain.BatchRow{
		{VendorName: "Acme Inc", Email: "a@x.com"},
		{VendorName: "Globex", Email: "other@x.com"},
		{VendorName: "Initech"},
	}
	rep, err := newSvc(batchRegistry(), Config{}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.EmailConflicts) != 2 {
		t.Fatalf("email checks = %d, want 2", len(rep.EmailConflicts))
	}
	if rep.EmailConflicts[0].Type != domain.NoConflict || rep.EmailConflicts[1].Type != domain.Conflict {
		t.Fatalf("conflicts = %+v", rep.EmailConflicts)
	}
	if rep.Conflicts() != 1 {
		t.Fatalf("Conflicts() = %d", rep.Conflicts())
	}
}

func TestValidateBatch_DedupeVsPerRow(t *testing.T) {
	rows := []domain.BatchRow{
		{VendorName: "Acme Inc", DeliveryName: "Globex", Email: "a@x.com"},
		{VendorName: "Acme Inc", DeliveryName: "Globex", Email: "a@x.com"},
		{VendorName: "Initech", DeliveryName: "Globex", Email: "a@x.com"},
		{VendorName: "Acme Inc", Email: "b@x.com"},
	}

	rep, err := newSvc(batchRegistry(), Config{Dedupe: true}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if want := []string{"Acme Inc", "Initech"}; !reflect.DeepEqual(names(rep.VendorResults), want) {
		t.Fatalf("vendors = %v, want %v", names(rep.VendorResults), want)
	}
	if len(rep.DeliveryResults) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(rep.DeliveryResults))
	}
	// (Acme Inc,a) (Initech,a) (Acme Inc,b)
	if len(rep.EmailConflicts) != 3 {
		t.Fatalf("email checks = %d, want 3", len(rep.EmailConflicts))
	}

	rep, err = newSvc(batchRegistry(), Config{Dedupe: false}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.VendorResults) != 4 || len(rep.DeliveryResults) != 3 || len(rep.EmailConflicts) != 4 {
		t.Fatalf("per row counts = %d/%d/%d", len(rep.VendorResults), len(rep.DeliveryResults), len(rep.EmailConflicts))
	}
}

func TestValidateBatch_BlankNamesSkipped(t *testing.T) {
	rows := []domain.BatchRow{
		{VendorName: "", DeliveryName: "  "},
		{VendorName: "Globex"},
	}
	rep, err := newSvc(batchRegistry(), Config{}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.VendorResults) != 1 || len(rep.DeliveryResults) != 0 {
		t.Fatalf("blank names resolved: %+v", rep)
	}
}

func TestValidateBatch_Deterministic(t *testing.T) {
	var rows []domain.BatchRow
	for i := 0; i < 40; i++ {
		rows = append(rows, domain.BatchRow{
			VendorName:   fmt.Sprintf("Vendor %02d", i),
			DeliveryName: fmt.Sprintf("Site %02d", i%7),
			Email:        fmt.Sprintf("v%d@x.com", i),
		})
	}
	s := newSvc(batchRegistry(), Config{Workers: 8, Dedupe: true})
	a, errA := s.ValidateBatch(context.Background(), rows)
	b, errB := s.ValidateBatch(context.Background(), rows)
	if errA != nil || errB != nil {
		t.Fatalf("errors: %v %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("batch results differ between runs")
	}
	if len(a.VendorResults) != 40 || len(a.DeliveryResults) != 7 || len(a.EmailConflicts) != 40 {
		t.Fatalf("counts = %d/%d/%d", len(a.VendorResults), len(a.DeliveryResults), len(a.EmailConflicts))
	}
	for i, r := range a.VendorResults {
		if r.QueryName != rows[i].VendorName {
			t.Fatalf("vendor %d out of order: %q", i, r.QueryName)
		}
	}
}

func TestValidateBatch_InvalidRowBecomesPlaceholder(t *testing.T) {
	long := strings.Repeat("x", 256)
	reg := batchRegistry()
	rows := []domain.BatchRow{
		{VendorName: "Acme Inc", Email: long},
		{VendorName: "Globex"},
	}
	rep, err := newSvc(reg, Config{Dedupe: true}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.VendorResults) != 2 || len(rep.EmailConflicts) != 1 {
		t.Fatalf("counts = %d/%d", len(rep.VendorResults), len(rep.EmailConflicts))
	}
	acme := rep.VendorResults[0]
	if acme.Exists || acme.Degraded || len(acme.Suggestions) != 0 {
		t.Fatalf("invalid row must give an unresolved placeholder: %+v", acme)
	}
	if rep.EmailConflicts[0].Type != domain.NoConflict {
		t.Fatalf("invalid row email: %+v", rep.EmailConflicts[0])
	}
	if !rep.VendorResults[1].Exists {
		t.Fatalf("valid row after an invalid one must still resolve")
	}
	for _, n := range reg.names {
		if n == "Acme Inc" {
			t.Fatalf("registry queried for an invalid row")
		}
	}
}

func TestValidateBatch_PlaceholderUpgradedByLaterValidRow(t *testing.T) {
	long := strings.Repeat("x", 256)
	rows := []domain.BatchRow{
		{VendorName: "Acme Inc", Email: long},
		{VendorName: "Acme Inc"},
	}
	rep, err := newSvc(batchRegistry(), Config{Dedupe: true}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.VendorResults) != 1 || !rep.VendorResults[0].Exists {
		t.Fatalf("vendor should resolve through the valid row: %+v", rep.VendorResults)
	}
}

func TestValidateBatch_PanicIsolatedToOneRow(t *testing.T) {
	reg := batchRegistry()
	reg.panicOn = "Globex"
	rows := []domain.BatchRow{
		{VendorName: "Acme Inc"},
		{VendorName: "Globex", Email: "g@x.com"},
		{VendorName: "Initech"},
	}
	rep, err := newSvc(reg, Config{}).ValidateBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(rep.VendorResults) != 3 || len(rep.EmailConflicts) != 1 {
		t.Fatalf("counts = %d/%d", len(rep.VendorResults), len(rep.EmailConflicts))
	}
	g := rep.VendorResults[1]
	if g.QueryName != "Globex" || g.Exists || len(g.Suggestions) != 0 {
		t.Fatalf("panicking row should be unresolved: %+v", g)
	}
	if rep.EmailConflicts[0].Type != domain.NoConflict {
		t.Fatalf("panicking email check should be no_conflict: %+v", rep.EmailConflicts[0])
	}
	if !rep.VendorResults[0].Exists || !rep.VendorResults[2].Exists {
		t.Fatalf("other rows must still resolve: %+v", rep.VendorResults)
	}
}

func TestValidateBatch_CanceledBeforeStart(t *testing.T) {
	reg := batchRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := newSvc(reg, Config{}).ValidateBatch(ctx, []domain.BatchRow{{VendorName: "Acme Inc"}, {VendorName: "Globex"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rep.VendorResults) != 0 {
		t.Fatalf("no result should be reported: %+v", rep.VendorResults)
	}
	if n := reg.registryCalls(); n != 0 {
		t.Fatalf("registry called %d times after cancel", n)
	}
}

// cancelingRegistry cancels the batch on its first lookup
type cancelingRegistry struct {
	*memRegistry
	cancel context.CancelFunc
}

func (c cancelingRegistry) FindExact(ctx context.Context, name string) (*domain.RegisteredEntity, error) {
	c.cancel()
	return c.memRegistry.FindExact(ctx, name)
}

func TestValidateBatch_CanceledMidway_NoNewWork(t *testing.T) {
	reg := batchRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rows []domain.BatchRow
	for i := 0; i < 20; i++ {
		rows = append(rows, domain.BatchRow{VendorName: fmt.Sprintf("Vendor %d", i)})
	}
	s := newSvc(cancelingRegistry{memRegistry: reg, cancel: cancel}, Config{Workers: 1})
	rep, err := s.ValidateBatch(ctx, rows)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rep.VendorResults) != 1 {
		t.Fatalf("only the in flight row may finish, got %d", len(rep.VendorResults))
	}
	if n := reg.exacts.Load(); n != 1 {
		t.Fatalf("lookups = %d, want 1", n)
	}
}

func TestValidateBatch_Empty(t *testing.T) {
	rep, err := newSvc(batchRegistry(), Config{}).ValidateBatch(context.Background(), nil)
	if err != nil || len(rep.VendorResults)+len(rep.DeliveryResults)+len(rep.EmailConflicts) != 0 {
		t.Fatalf("empty batch: %+v %v", rep, err)
	}
}
