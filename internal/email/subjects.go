package email

const (
	subjectScheduleConfirmationFmt = "Your visit for order %s is scheduled"
	subjectStatusUpdateFmt         = "Update on your repair order %s"
	subjectQuoteReadyFmt           = "Your repair quote for order %s is ready"
	subjectPaymentReceiptFmt       = "Payment received for order %s"
	subjectCancellationFmt         = "Your repair order %s was cancelled"
)
