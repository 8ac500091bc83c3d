package usbid

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestDB writes a minimal usb.ids file and returns its path.
func writeTestDB(t *testing.T) string {
	t.Helper()
	content := "# Test USB IDs\n" +
		"1a86  QinHeng Electronics\n" +
		"\t5512  CH341 in EPP/MEM/I2C mode, EPP/I2C adapter\n" +
		"\t5523  CH341 in serial mode, usb to serial port converter\n" +
		"046d  Logitech, Inc.\n" +
		"\tc077  M105 Optical Mouse\n" +
		"\n" +
		"C 03  Human Interface Device\n"

	path := filepath.Join(t.TempDir(), "usb.ids")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test db: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	db := New()
	if db == nil {
		t.Fatal("New() returned nil")
	}
	if len(db.paths) != len(DefaultPaths) {
		t.Errorf("Expected %d paths, got %d", len(DefaultPaths), len(db.paths))
	}
	if db.vendors == nil || db.products == nil {
		t.Error("Database maps not initialized")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	db := NewWithPaths([]string{"/nonexistent/path/usb.ids"})
	if db.Load() {
		t.Error("Load() should return false when file not found")
	}
	if !db.IsLoaded() {
		t.Error("IsLoaded() should return true after Load() attempt")
	}
}

func TestLoad_Lookups(t *testing.T) {
	db := NewWithPaths([]string{writeTestDB(t)})
	if !db.Load() {
		t.Fatal("Load() failed")
	}

	if got := db.LookupVendor(0x1A86); got != "QinHeng Electronics" {
		t.Errorf("LookupVendor(0x1A86) = %q", got)
	}
	if got := db.LookupProduct(0x1A86, 0x5512); got != "CH341 in EPP/MEM/I2C mode, EPP/I2C adapter" {
		t.Errorf("LookupProduct(0x1A86, 0x5512) = %q", got)
	}
	if got := db.LookupProduct(0x046D, 0xC077); got != "M105 Optical Mouse" {
		t.Errorf("LookupProduct(0x046D, 0xC077) = %q", got)
	}

	// Unknown IDs return empty strings
	if got := db.LookupVendor(0xDEAD); got != "" {
		t.Errorf("LookupVendor(0xDEAD) = %q, want empty", got)
	}
	if got := db.LookupProduct(0x1A86, 0xFFFF); got != "" {
		t.Errorf("LookupProduct(0x1A86, 0xFFFF) = %q, want empty", got)
	}

	if db.VendorCount() != 2 {
		t.Errorf("VendorCount() = %d, want 2", db.VendorCount())
	}
	if db.ProductCount() != 3 {
		t.Errorf("ProductCount() = %d, want 3", db.ProductCount())
	}
}

func TestLoad_Idempotent(t *testing.T) {
	db := NewWithPaths([]string{writeTestDB(t)})
	if !db.Load() {
		t.Fatal("first Load() failed")
	}
	vendors := db.VendorCount()

	if !db.Load() {
		t.Fatal("second Load() failed")
	}
	if db.VendorCount() != vendors {
		t.Errorf("VendorCount changed after reload: %d != %d", db.VendorCount(), vendors)
	}
}

func TestLoad_ClassSectionResetsVendor(t *testing.T) {
	// A product line after a class section must not attach to the last vendor.
	content := "1a86  QinHeng Electronics\n" +
		"C 03  Human Interface Device\n" +
		"\t5512  Bogus Product\n"
	path := filepath.Join(t.TempDir(), "usb.ids")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test db: %v", err)
	}

	db := NewWithPaths([]string{path})
	db.Load()

	if got := db.LookupProduct(0x1A86, 0x5512); got != "" {
		t.Errorf("LookupProduct after class section = %q, want empty", got)
	}
}
