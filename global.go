package interntab

// defaultTab is the process-wide table. It is created on first use.
var defaultTab *InternTab

// Default returns the process-wide InternTab, creating it if needed. Like any
// InternTab it is not safe for concurrent use.
func Default() *InternTab {
	if defaultTab == nil {
		defaultTab = New(DefaultSize)
	}
	return defaultTab
}

// Intern interns b in the process-wide table and takes a reference to it
func Intern(b []byte) *String {
	return Default().Intern(b)
}

// GetOrCreate interns b in the process-wide table without taking a reference
func GetOrCreate(b []byte) *String {
	return Default().GetOrCreate(b)
}

// Find looks b up in the process-wide table. It returns nil if b is not present.
func Find(b []byte) *String {
	if defaultTab == nil {
		return nil
	}
	return defaultTab.Find(b)
}

// GC collects garbage in the process-wide table
func GC() int {
	if defaultTab == nil {
		return 0
	}
	return defaultTab.GC()
}

// Finalize frees the process-wide table and every String in it. Call it at
// shutdown: any String still held becomes invalid. A later call to Default
// creates a fresh table.
func Finalize() {
	if defaultTab == nil {
		return
	}
	defaultTab.Finalize()
	defaultTab = nil
}
