package llm

// SystemPrompt frames the model as a payment screenshot reader.
const SystemPrompt = "You read screenshots of payment confirmations (UPI apps, card slips, wallet receipts). " +
	"Answer only from what is visible in the image. Return ONLY a JSON object, no prose and no code fences."

// UserPrompt asks the four extraction questions.
const UserPrompt = `Extract these fields from the attached payment screenshot:
- "vendor": the merchant or person that was paid
- "amount": the amount paid, exactly as shown including the currency symbol (for example "₹1,200.00")
- "transaction_id": the transaction, UTR, UPI reference or order id
- "date": the transaction date exactly as shown

Use an empty string for any field that is not visible. Respond with a JSON object with exactly these four keys.`
