package analyzer

// regionAnalysisPrompt is the fixed instruction sent to the model for a
// region analysis. The single format parameter is the region name.
const regionAnalysisPrompt = `Analyze the region %q as a market for car sales and provide:

1. Popular Telegram channels and chats on car topics (5-7 entries)
2. Groups and communities for selling cars
3. Market potential (high/medium/low)
4. Estimated number of potential clients
5. Marketing recommendations

Return the answer strictly as JSON with exactly these fields:
{
  "channels": ["channel1", "channel2"],
  "groups": ["group1", "group2"],
  "potential": "high|medium|low",
  "estimated_clients": number,
  "recommendations": "recommendation text"
}`
