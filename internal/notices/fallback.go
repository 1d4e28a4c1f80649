package notices

import "github.com/JakeFAU/school-portal-api/internal/school"

// Fallback returns the notices served when the sheet is unavailable. Each
// call returns a fresh slice.
func Fallback() []school.Notice {
	return []school.Notice{
		{
			Title:       "Welcome to New Academic Year 2025",
			Date:        "2025-01-15",
			Description: "Classes will commence from January 20, 2025",
		},
		{
			Title:       "Admission Open for Technical Programs",
			Date:        "2025-01-10",
			Description: "Applications are now open for all technical courses",
		},
		{
			Title:       "Annual Sports Day",
			Date:        "2025-01-05",
			Description: "Sports competition will be held on February 15, 2025",
		},
	}
}
