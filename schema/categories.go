package schema

// Indicator headers are matched byte-for-byte against the worksheets,
// spelling included.

// Default returns the nine UGIAP categories in dashboard order.
func Default() Schema {
	s, err := New(defaultCategories()...)
	if err != nil {
		panic(err)
	}
	return s
}

func defaultCategories() []Category {
	return []Category{
		NewCategory("Citizen", "Citizen Awareness and Participation", 17,
			"TLCC Formation",
			"TLCC Meetings per Year",
			"TLCC Meeting Minutes",
			"WC Formation",
			"Meeting held in each Ward/3 months",
			"WC Meeting Record",
			"Citizen Charter Preparation",
			"Citizen Charter Display",
			"IGRC Fomration",
			"Complaint Box Installation",
			"GRC Meeting",
			"GRC disclosed to TLCC",
		),
		NewCategory("Planning", "Urban Planning", 7,
			"PDP Status",
			"Master Plan Status",
			"Development Activities Control",
		),
		NewCategory("Equity", "Equity and Inclusiveness of Women and Urban Poor", 8,
			"STC Formation Status",
			"STC Meeting",
			"PRAP & GAP Status",
			"PRAP & GAP Implementation Status",
			"SIC Selection Status",
			"SIC Formation Status",
			"SIC Meeting",
		),
		NewCategory("Resources", "Enhancement of Local Resource Mobilization", 18,
			"Holding Tax Assessment in 5 year (if Due)",
			"Interim Holding Tax Assessment every year",
			"Increased Holding Tax Collection",
			"Indirect Tax Status",
			"Indirect Tax Collection",
			"Tax Software Status",
			"Tax Bil Procedue",
			"Water Tariff Plan",
			"Water Tariff Asset",
			"Water Bill Collection",
		),
		NewCategory("FIN MGT", "Financial Management, Accountability and Sustainability", 18,
			"Budget Peparation",
			"Annual Financial Statement",
			"Audit",
			"Computerized Accounting System",
			"Staff Salary Payment",
			"Electric and Telephone Bills Payment",
			"Loans Payment",
			"Fixed Assed Inventory",
			"Rental and lease Value Property",
			"Fixed Asset Database",
		),
		NewCategory("O&M", "Operation and Maintenance (O&M) and Management", 8,
			"O&M Plan",
			"O&M Budget Spending",
			"TLCC Satisfaction Level (O&M Plan)",
			"Priority O&M Activities Implementation",
			"Mobile Maintenance Team Fuctional",
			"TLCC Satisfaction Level (O&M)",
		),
		NewCategory("Survey", "Condition Survey & Prepared Road and Drain Network and Other Asset Inventory", 4,
			"Condition Survey for Road",
			"Condition Survey for Drains",
			"Condition Survey for Other Assets",
		),
		NewCategory("Transparency", "Administrative Transparency", 6,
			"SC Meeting",
			"Training Program",
			"Pourashava Website",
		),
		NewCategory("Services", "Keeping Essential Pourashava Services Functional", 14,
			"SWM Action Plan",
			"Solid Waste Collection",
			"TLCC Satisfaction Assessment (SWM)",
			"Drainage Maintenance Action Plan",
			"Primary Drains Cleaning",
			"TLCC Satisfaction Assessment (Drains)",
			"Street Lighting Action Plan",
			"Street Light Fuctional",
			"TLCC Satisfaction Assessment (Streetlight)",
			"Sanitation Action Plan",
			"Pubic Toilets",
			"TLCC Satisfaction (Public Toilets)",
		),
	}
}
