package prompt

// Example is one fixed few-shot (question, SQL, explanation) triple. The set
// below is the single versioned artifact consumed by the API pipeline, the
// eval harness, and the chat front end; it is not user-supplied.
type Example struct {
	Question    string
	SQL         string
	Explanation string
}

const ExamplesVersion = "2025-02"

var Examples = []Example{
	{
		Question:    "Wie viele Kunden gibt es insgesamt?",
		SQL:         "SELECT COUNT(*) as total_customers FROM client;",
		Explanation: "Einfache Aggregation mit COUNT(*)",
	},
	{
		Question: "Zeige mir die Top 5 Kunden mit den höchsten Transaktionssummen",
		SQL: `SELECT c.client_id, SUM(t.amount) as total_amount
FROM client c
JOIN trans t ON c.client_id = t.client_id
GROUP BY c.client_id
ORDER BY total_amount DESC
LIMIT 5;`,
		Explanation: "JOIN zwischen client und trans, GROUP BY und ORDER BY",
	},
	{
		Question:    "Welche Konten haben einen negativen Saldo?",
		SQL:         "SELECT account_id, balance FROM account WHERE balance < 0;",
		Explanation: "Einfacher Filter mit WHERE-Klausel",
	},
}
