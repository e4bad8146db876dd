package agents

const marketSummaryPrompt = `As a real estate expert, analyze these properties and market trends:

Properties Found:
%s

Summary:
%s
**Instructions:**
- Identify the best properties close to %s crores.
- Compare properties based on location, price per sq ft, and amenities.
- Provide investment insights and negotiation tips.

Format your response in a structured way.`

const investmentPrompt = `As an experienced real estate investment analyst in India, provide a detailed investment analysis for this property:

Property Details:
- Name: %s
- Type: %s
- Location: %s
- City: %s
- Price: %s crore
- Description: %s

Provide your analysis in the following JSON format:
{
    "roi_5year": <float: expected 5-year ROI percentage>,
    "roi_10year": <float: expected 10-year ROI percentage>,
    "appreciation_rate": <float: annual appreciation rate percentage>,
    "rental_yield": <float: expected rental yield percentage>,
    "risk_score": <int: risk score from 0-100, where 0 is lowest risk>,
    "recommendation": "<string: 'buy', 'hold', or 'avoid'>",
    "analysis": "<string: detailed 3-4 sentence investment analysis covering location factors, price trends, rental potential, and key considerations>"
}

Consider factors like:
- Location desirability and infrastructure
- Historical price trends in the area
- Rental demand and yield potential
- Future development plans
- Price per square foot compared to market average

Respond ONLY with valid JSON, no additional text.`

const marketTrendPrompt = `As a real estate market analyst specializing in Indian property markets, analyze the market trends for:

City: %s
Property Type: %s
Analysis Timeframe: %s

Provide a comprehensive market analysis in the following JSON format:
{
    "price_trend": "<string: 'rising', 'stable', or 'declining'>",
    "demand_level": "<string: 'high', 'medium', or 'low'>",
    "growth_prediction": <float: expected growth percentage over the timeframe>,
    "hot_areas": ["<area1>", "<area2>", "<area3>"],
    "insights": "<string: detailed 4-5 sentence analysis covering current market conditions, supply-demand dynamics, infrastructure developments, price trends, and investment outlook>"
}

Consider:
- Recent price movements and historical trends
- Supply vs demand dynamics
- New infrastructure projects (metro, IT parks, airports)
- Job market and migration patterns
- Government policies and regulations
- Upcoming developments

Respond ONLY with valid JSON, no additional text.`

const extractionPrompt = `You are reading the visible text of a property listing page.

%s

Return a JSON object of the form:
{"properties": [{"building_name": "...", "property_type": "...", "location_address": "...", "price": "...", "description": "..."}]}

Use an empty list when the page lists no matching properties. Respond ONLY with valid JSON, no additional text.

Page text:
%s`
