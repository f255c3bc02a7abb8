package memory

import "billed/internal/core"

// Fixtures returns the demo bills the store is seeded with by default.
func Fixtures() []core.Bill {
	return []core.Bill{
		{
			ID:           "47qAXb6fIm2zOKkLzMro",
			Email:        "a@a",
			Type:         "Hôtel et logement",
			Name:         "encore",
			Amount:       core.Money{Cents: 40000},
			Date:         "2004-04-04",
			VAT:          "80",
			Pct:          20,
			Commentary:   "séminaire billed",
			FileURL:      "https://test.storage.tld/v0/b/billable-677b6.appspot.com/o/justificatifs%2Fpreview-facture-free-201801-pdf-1.jpg?alt=media",
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Status:       core.StatusPending,
			CommentAdmin: "ok",
		},
		{
			ID:           "BeKy5Mo4jkmdfPGYpTxZ",
			Email:        "a@a",
			Type:         "Transports",
			Name:         "test1",
			Amount:       core.Money{Cents: 10000},
			Date:         "2001-01-01",
			VAT:          "",
			Pct:          20,
			Commentary:   "plop",
			FileURL:      "https://test.storage.tld/v0/b/billable-677b6.appspot.com/o/justificatifs%2F1592770761.jpeg?alt=media",
			FileName:     "1592770761.jpeg",
			Status:       core.StatusRefused,
			CommentAdmin: "en fait non",
		},
		{
			ID:           "UIUZtnPQvnbFnB0ozvJh",
			Email:        "a@a",
			Type:         "Services en ligne",
			Name:         "test3",
			Amount:       core.Money{Cents: 30000},
			Date:         "2003-03-03",
			VAT:          "60",
			Pct:          20,
			FileURL:      "https://test.storage.tld/v0/b/billable-677b6.appspot.com/o/justificatifs%2Ffacture-client-php-exportee.png?alt=media",
			FileName:     "facture-client-php-exportee.png",
			Status:       core.StatusAccepted,
			CommentAdmin: "bon bah d'accord",
		},
		{
			ID:           "qcCK3SzECmaZAGRrHjaC",
			Email:        "a@a",
			Type:         "Restaurants et bars",
			Name:         "test2",
			Amount:       core.Money{Cents: 20000},
			Date:         "2002-02-02",
			VAT:          "40",
			Pct:          20,
			Commentary:   "test2",
			FileURL:      "https://test.storage.tld/v0/b/billable-677b6.appspot.com/o/justificatifs%2Fpreview-facture-free-201801-pdf-1.jpg?alt=media",
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Status:       core.StatusRefused,
			CommentAdmin: "pas la bonne facture",
		},
	}
}
