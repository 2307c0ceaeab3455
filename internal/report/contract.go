package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/pkg/anthropic"
)

const summaryPrompt = `You are a helpful assistant that summarises contract documents.

Contract:
%s

Summarise this contract without losing any important information following the provided format:

%s

Generate the summary in CSV format that can be opened in MS Excel.

**Drop all the commas in the content of the summary report.**
**Do not start the summary with a code fence and do not end it with one.**

Please use the following sample contract summary to understand the format of the summary report:

%s`

const summaryFormat = `Contract summary report for file: Names of the contract documents summarised. This can be one or more MSA (Master Service Agreement) or SOW (Statement of Work) or other contract documents.
Contracting parties: The names of the parties involved in the contract.
Contract name / number: The name or number of the contract.
Contract start date: The start date of the contract.
Contract end date: The end date of the contract.
Contract Term: Summary of the contract term clauses. Make sure to capture all the important information.
Auto Renewal: Summary of the auto renewal clauses. Make sure to capture all the important information.
Early termination time: Summary of the early termination time clauses. Make sure to capture all the important information.
Early termination penalty: Summary of the early termination penalty clauses. Make sure to capture all the important information.
Price increase: Summary of the price increase clauses. Make sure to capture all the important information.
Notice Period for price increase: Summary of the notice period for price increase clauses. Make sure to capture all the important information.
Late payment service charge rate: Summary of the late payment service charge rate clauses.
Terms of payment: Summary of the terms of payment clauses. Make sure to capture all the important information.
Agreed Itemized pricing: Whether the contract allows for itemized pricing. Eg: MSA states pricing is by SOW.
Mailing/Postal Cost: Summary of the mailing/postal cost clauses if applicable. Make sure to capture all the important information.
Time to bill for services: Summary of the time to bill for services clauses if applicable. Make sure to capture all the important information.
Special Discounts: Summary of the special discounts clauses if applicable. Make sure to capture all the important information.
SLA: Summary of the service level agreement (SLA) clauses if applicable. Make sure to capture all the important information.
Consumer Price Index (CPI): Summary of the Consumer Price Index (CPI) clauses if applicable. This is also given as "Change in pricing" in the contract. Make sure to capture all the important information.`

const sampleSummary = `Contract summary report for file, Master Services Agreement and Statement of Work No. 1
Contracting parties, AMA Insurance Agency Inc. and Microdynamics Corporation (d/b/a Microdynamics Group)
Contract name / number, Master Services Agreement and Statement of Work No. 1
Contract start date, August 1 2019
Contract end date, July 31 2024
Contract Term, The term commences on the Effective Date and continues until July 31 2024 and thereafter automatically renews for additional twelve-month periods unless terminated by either party
Auto Renewal, The Agreement automatically renews for additional twelve-month periods unless either party provides written notice of its election not to renew at least ninety (90) days prior to the renewal date
Early termination time, Either party may terminate upon one hundred eighty (180) days' written notice after the Initial Term
Early termination penalty, No specific penalties but all fees costs and expenses owed up to the effective date of termination remain payable
Price increase, Prices may change to reflect changes in rates from third parties such as postal authorities and suppliers of paper and envelopes
Notice Period for price increase, Written notice of any price increase at least sixty (60) days prior to the proposed effective date
Late payment service charge rate, Undisputed amounts not paid within thirty (30) days bear interest at a rate of 1.5% per month
Terms of payment, Invoices are payable within thirty (30) days after delivery
Agreed Itemized pricing, Pricing is specified in the Statement of Work and includes itemized costs for materials services and postage
Mailing/Postal Cost, All USPS postage charges are reimbursed as part of the Monthly Summary Invoice
Time to bill for services, A Monthly Summary Invoice is sent by the tenth (10th) Business Day of each month for the prior month's activity
Special Discounts, No special discounts are mentioned in the contract
SLA, Service Level Agreements are specified in Attachment B of the Statement of Work and include credits for failure to meet service levels
Consumer Price Index (CPI), The Agreement may be terminated by either party upon sixty (60) days' prior written notice if the CPI for the month of the termination date is 1.5% or more above the CPI for the month of the Effective Date`

// SummarizeContracts produces a CSV-shaped clause summary over one or
// more contract texts.
func (g *Generator) SummarizeContracts(ctx context.Context, contractTexts []string) (string, error) {
	if len(contractTexts) == 0 {
		return "", eris.New("report: no contract text to summarize")
	}

	temp := 0.2
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   int64(g.maxTokens),
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(summaryPrompt,
				strings.Join(contractTexts, "\n\n"), summaryFormat, sampleSummary)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "report: summarize contracts")
	}
	return resp.Text(), nil
}
