package refine

import (
	"strings"
)

// Known error codes per product group and product. Lookup precedence:
// exact group+product entry, then group entry, then product entry.
// Sourced from the service academy troubleshooting catalog.
var errorCodesByGroupProduct = map[string][]string{
	"WM|W/M": washerErrorCodes,
	"WM|WM":  washerErrorCodes,
	"WM|DRW": washerErrorCodes,
	"WM|DRR": {
		"AE", "Ant", "bE", "Cd", "CE1", "CL", "dE", "dE4", "EHE", "ELE", "F1", "IE", "LE1", "LE2", "nC", "nE", "nF", "OE", "tE", "tE1", "tE2", "tE3", "tE4",
	},
	"ACN|WRA": {
		"CH01", "CH02", "CH06", "CH12", "CH03", "CH04", "CH09", "CH10", "CH21", "CH29", "CH22", "CH23", "CH24", "CH26", "CH27", "CH32", "CH34", "CH35", "CH36", "CH38", "CH37", "CH41", "CH44", "CH45", "CH48", "CH46", "CH42", "CH43", "CH51", "CH60", "CH61", "CH62", "CH65", "CH67", "CH72",
	},
}

var washerErrorCodes = []string{
	"AE", "Cd", "CE", "CL", "dcL", "dE", "dE1", "dE2", "dE3", "dHE", "dO", "E7", "Ed1", "Ed2", "Ed3", "Ed4", "Ed5", "FE", "FF", "IE", "LE", "LE1~9", "nC", "nE", "nF", "OE", "OPn", "PE", "PF", "PS", "SE", "SEE", "tE", "u5", "UE", "VS",
}

var errorCodesByGroup = map[string][]string{
	"REF": {
		"C1", "CF", "CH", "CL", "CO", "dH", "dS", "FF", "FS", "FU", "gF", "Hi", "IF", "Lo", "OFF", "rF", "rS",
		"Ad", "dL", "dr", "E AS", "gS", "HS", "I Ld", "I LS", "Id", "IS", "It", "IU", "L AS", "nC", "nE", "nF", "Od", "r AS", "r2", "rt", "S1", "S2", "SS", "tt", "U Ld", "U LS", "UC",
	},
	"STL": {
		"AE", "bE2", "bE3", "bE4", "bE5", "bE6", "bE7", "CE2", "CE3", "CE4", "CE5", "CE6", "CE7", "CL", "dE", "dHE", "E1", "E4", "EE", "LE", "LE2", "nC", "nE", "nF", "tE1", "tE2", "tE3", "tE4", "tE5",
	},
	// Portable units; the wall-mounted list lives under ACN|WRA.
	"ACN": {
		"CH01", "CH02", "CH10", "CH22", "CH26", "CH32", "CH38", "CH41", "CH45", "CH61", "CH62", "CH67", "CH75", "CL", "Co", "CP", "FL", "Po",
	},
	// Codes show as display images only; none are text-verifiable.
	"VC": {},
	"WM": {},
}

var errorCodesByProduct = map[string][]string{
	"ELC": {
		"F1", "F10", "F11", "F16", "F17", "F18", "F19", "F2", "F20", "F21", "F22", "F24", "F25", "F3", "F33", "F34", "F36", "F38", "F4", "F42", "F45", "F46", "F5", "F51", "F52", "F56", "F59", "F6", "F62", "F69", "F7", "F8", "F9",
	},
	"MWO": {
		"COOL", "DOOR", "E-01", "E-02", "E-03", "E-04", "E-05", "E-10", "F-01", "F-02", "F-1", "F-10", "F-11", "F-13", "F-14", "F-16", "F-17", "F-2", "F-3", "F-4",
	},
	"ACL": {
		"E10", "E11", "E15", "E9", "Hi", "Lo",
	},
}

// KnownErrorCodes returns the error-code list for a product selection.
func KnownErrorCodes(groupCode, productCode string) []string {
	if codes, ok := errorCodesByGroupProduct[groupCode+"|"+productCode]; ok {
		return codes
	}
	if codes, ok := errorCodesByGroup[groupCode]; ok {
		return codes
	}
	if codes, ok := errorCodesByProduct[productCode]; ok {
		return codes
	}
	return nil
}

// VerifyErrorCode reports whether every extracted code appears in the
// product's known list. Matching is case-insensitive substring
// containment, so "CH" verifies against "CH01". An empty or "None"
// input is vacuously valid.
func VerifyErrorCode(groupCode, productCode, errorCode string) bool {
	if errorCode == "" || strings.EqualFold(errorCode, "None") {
		return true
	}
	known := KnownErrorCodes(groupCode, productCode)

	for _, code := range strings.Split(errorCode, ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		found := false
		for _, item := range known {
			if strings.Contains(strings.ToUpper(item), code) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var groupNames = map[string]string{
	"ACN": "AirConditioner",
	"AUD": "Audio",
	"COK": "CookingAppliance",
	"MNT": "Monitor",
	"PC":  "Computer",
	"REF": "Refrigerator",
	"STL": "Styler",
	"TV":  "TV",
	"VC":  "VacuumCleaner",
	"VPJ": "Projector",
	"WM":  "WashingMachine",
	"DWM": "DWM",
}

var otherProductNames = map[string]string{
	"VCR": "Video/DVD",
	"CDM": "CD-Rom",
	"IPD": "Innovative Personal Device",
	"ACL": "Air Cleaner",
	"OTH": "Appliances",
}

// GroupName returns the display name used in prompts and advisory
// messages. Dryers carry a WM group code but confuse the model when
// named "WashingMachine", so they get their own name.
func GroupName(groupCode, productCode string) string {
	if groupCode == "WM" && productCode == "DRR" {
		return "Laundry Dryer"
	}
	if name, ok := groupNames[groupCode]; ok {
		return name
	}
	return "Appliances - " + otherProductNames[productCode]
}
