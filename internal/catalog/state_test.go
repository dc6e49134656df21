package catalog

import "testing"

func TestStateFilterChangesResetPage(t *testing.T) {
	s := NewState()
	s.Show(ViewForum)
	s.SetPage(4)

	s.Search("perez", "Santiago")
	if s.Page != 1 || s.View != ViewHome {
		t.Fatalf("after Search: page=%d view=%s", s.Page, s.View)
	}

	s.SetPage(3)
	s.SetCampus("Mao")
	if s.Page != 1 || s.Campus != "Mao" {
		t.Fatalf("after SetCampus: %+v", s)
	}

	s.SetPage(2)
	s.ToggleModality(ModalityVirtual)
	if s.Page != 1 || s.Modality != ModalityVirtual {
		t.Fatalf("after ToggleModality: %+v", s)
	}
	s.ToggleModality(ModalityVirtual)
	if s.Modality != ModalityAny {
		t.Fatalf("selecting the active modality should clear it, got %q", s.Modality)
	}
	s.ToggleModality(ModalitySemipresencial)
	s.ToggleModality(ModalityVirtual)
	if s.Modality != ModalityVirtual {
		t.Fatalf("switching modality = %q", s.Modality)
	}
}

func TestStateShowKeepsFilters(t *testing.T) {
	s := NewState()
	s.Search("ana", "")
	s.SetPage(2)
	s.Show(ViewMarketplace)
	if s.View != ViewMarketplace || s.Query != "ana" || s.Page != 2 {
		t.Fatalf("Show changed more than the view: %+v", s)
	}
	s.Reset()
	if s != NewState() {
		t.Fatalf("Reset = %+v", s)
	}
}

func TestStateApplyStoresClampedPage(t *testing.T) {
	c := bigCatalog(45)
	s := NewState()
	s.SetPage(9)
	res := s.Apply(c)
	if res.Page != 3 || s.Page != 3 {
		t.Fatalf("Apply page = %d, state page = %d, want 3", res.Page, s.Page)
	}
}

func TestParseView(t *testing.T) {
	if v, err := ParseView("faq"); err != nil || v != ViewFAQ {
		t.Fatalf("ParseView(faq) = %q, %v", v, err)
	}
	if _, err := ParseView("settings"); err == nil {
		t.Fatal("expected error for unknown view")
	}
}
