package main

import (
	"context"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"carpool/internal/logger"
)

var knowledge = []sdk.NL2SQLKnowledgeCreateRequest{
	{Type: "glossary", Key: "driver", Value: []string{"entries.role = 'D': the member drove that day"}},
	{Type: "glossary", Key: "rider", Value: []string{"entries.role = 'R': the member rode with the driver"}},
	{Type: "glossary", Key: "off", Value: []string{"entries.role = 'O': the member did not take part that day"}},
	{Type: "glossary", Key: "credit", Value: []string{"riding earns one credit; driving costs one credit per rider that day; off is neutral"}},

	{Type: "synonyms", Key: "who/person/member/name", Value: []string{"member display name"}, AssociateTables: []string{"members,name"}},
	{Type: "synonyms", Key: "date/day/when", Value: []string{"calendar day of the entry"}, AssociateTables: []string{"entries,day"}},
	{Type: "synonyms", Key: "changed by/edited by/saved by", Value: []string{"user who saved the day"}, AssociateTables: []string{"entries,update_user"}},

	{Type: "logic", Key: "join entries to members through entries.member_key = members.key to get names", Value: []string{"JOIN members ON entries.member_key = members.`key`"}},
	{Type: "logic", Key: "only active members are candidates for a driver suggestion", Value: []string{"members.active = 1"}},

	{Type: "case_library", Key: "how many days did each member drive", Value: []string{"SELECT m.name, COUNT(*) AS days FROM entries e JOIN members m ON e.member_key = m.`key` WHERE e.role = 'D' GROUP BY m.name ORDER BY days DESC"}},
	{Type: "case_library", Key: "who drove this week", Value: []string{"SELECT e.day, m.name FROM entries e JOIN members m ON e.member_key = m.`key` WHERE e.role = 'D' AND e.day >= DATE_SUB(CURDATE(), INTERVAL WEEKDAY(CURDATE()) DAY) ORDER BY e.day"}},
	{Type: "case_library", Key: "rider count per day", Value: []string{"SELECT day, SUM(role = 'R') AS riders FROM entries GROUP BY day ORDER BY day DESC"}},
}

func initKnowledge(ctx context.Context, client *sdk.RawClient) error {
	for _, k := range knowledge {
		resp, err := client.CreateKnowledge(ctx, &k)
		if err != nil {
			if isDuplicate(err) {
				logger.Info("knowledge: already exists, skipping", "type", k.Type, "key", k.Key)
				continue
			}
			return err
		}
		logger.Info("knowledge: created", "type", k.Type, "key", k.Key, "id", resp.ID)
	}
	return nil
}
