// internal/register/table.go
package register

// Sunny Boy measurement table, distilled from the vendor's published Modbus
// parameter list. Addresses are the SMA profile's input-register range.
// Scale follows the vendor's FIXn convention: FIX2 means the register holds
// hundredths, so the multiplier is 0.01.
var sunnyBoy = []Descriptor{
	// ---- IDENTITY ----
	{Name: "device_class", Address: 30051, Words: 2, Type: U32, TagList: true},
	{Name: "device_type", Address: 30053, Words: 2, Type: U32, TagList: true},
	{Name: "serial_number", Address: 30057, Words: 2, Type: U32},
	{Name: "software_package", Address: 30059, Words: 2, Type: U32},

	// ---- STATE ----
	{Name: "operating_condition", Address: 30201, Words: 2, Type: U32, TagList: true},
	{Name: "grid_relay", Address: 30217, Words: 2, Type: U32, TagList: true},

	// ---- COUNTERS ----
	{Name: "total_yield", Address: 30513, Words: 4, Type: U64, Unit: "Wh",
		DeviceClass: "energy", StateClass: "total_increasing"},
	{Name: "daily_yield", Address: 30517, Words: 4, Type: U64, Unit: "Wh",
		DeviceClass: "energy", StateClass: "total_increasing"},
	{Name: "operating_time", Address: 30521, Words: 4, Type: U64, Unit: "s",
		DeviceClass: "duration", StateClass: "total_increasing"},

	// ---- DC SIDE ----
	{Name: "dc_current", Address: 30769, Words: 2, Type: S32, Scale: 0.001, Unit: "A",
		DeviceClass: "current", StateClass: "measurement"},
	{Name: "dc_voltage", Address: 30771, Words: 2, Type: S32, Scale: 0.01, Unit: "V",
		DeviceClass: "voltage", StateClass: "measurement"},
	{Name: "dc_power", Address: 30773, Words: 2, Type: S32, Unit: "W",
		DeviceClass: "power", StateClass: "measurement"},

	// ---- AC SIDE ----
	{Name: "ac_power", Address: 30775, Words: 2, Type: S32, Unit: "W",
		DeviceClass: "power", StateClass: "measurement"},
	{Name: "grid_voltage_l1", Address: 30783, Words: 2, Type: U32, Scale: 0.01, Unit: "V",
		DeviceClass: "voltage", StateClass: "measurement"},
	{Name: "grid_current", Address: 30795, Words: 2, Type: U32, Scale: 0.001, Unit: "A",
		DeviceClass: "current", StateClass: "measurement"},
	{Name: "grid_frequency", Address: 30803, Words: 2, Type: U32, Scale: 0.01, Unit: "Hz",
		DeviceClass: "frequency", StateClass: "measurement"},
	{Name: "reactive_power", Address: 30805, Words: 2, Type: S32, Unit: "var",
		DeviceClass: "reactive_power", StateClass: "measurement"},
	{Name: "apparent_power", Address: 30813, Words: 2, Type: S32, Unit: "VA",
		DeviceClass: "apparent_power", StateClass: "measurement"},

	// ---- DEVICE ----
	{Name: "internal_temperature", Address: 34113, Words: 2, Type: S32, Scale: 0.1, Unit: "°C",
		DeviceClass: "temperature", StateClass: "measurement"},
}

// SunnyBoy returns the built-in measurement table. Callers own the copy.
func SunnyBoy() []Descriptor {
	out := make([]Descriptor, len(sunnyBoy))
	copy(out, sunnyBoy)
	return out
}

// Lookup finds a descriptor by measurement name.
func Lookup(table []Descriptor, name string) (Descriptor, bool) {
	for _, d := range table {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
